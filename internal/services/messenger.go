//go:generate go run go.uber.org/mock/mockgen -source=messenger.go -destination=../mocks/mock_messenger.go -package=mocks

package services

import "context"

// MaxButtons is the most reply buttons one WhatsApp message can carry.
const MaxButtons = 3

// Button is a reply button.
type Button struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ListRow is one selectable row of a list message.
type ListRow struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// ListSection groups list rows under a title.
type ListSection struct {
	Title string    `json:"title"`
	Rows  []ListRow `json:"rows"`
}

// Messenger delivers outbound chat messages.
type Messenger interface {
	SendText(ctx context.Context, to, text string) error
	// SendButtons sends body with up to MaxButtons reply buttons. Extra buttons are dropped.
	SendButtons(ctx context.Context, to, body string, buttons []Button) error
	SendList(ctx context.Context, to, body, buttonText string, sections []ListSection) error
	SendCatalog(ctx context.Context, to, body string) error
}
