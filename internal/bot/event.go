package bot

import "github.com/example/waorder/internal/services"

// Inbound is one normalised message received from a sender.
type Inbound struct {
	MessageID string
	From      string
	Phone     string
	Event     Event
}

// Event is what the sender did. The set of implementations is closed.
type Event interface {
	// Kind names the event for dedup records and message logs.
	Kind() string
	isEvent()
}

// TextEvent is a free-text message.
type TextEvent struct {
	Text string `json:"text"`
}

// ButtonEvent is a tap on a reply button.
type ButtonEvent struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ListEvent is a row picked from a list message.
type ListEvent struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// CatalogOrderEvent is a cart sent from the business catalog.
type CatalogOrderEvent struct {
	CatalogID string               `json:"catalog_id"`
	Lines     []services.OrderLine `json:"lines"`
}

// UnsupportedEvent is any message type the bot does not handle.
type UnsupportedEvent struct {
	Type string `json:"type"`
}

func (TextEvent) Kind() string         { return "text" }
func (ButtonEvent) Kind() string       { return "button" }
func (ListEvent) Kind() string         { return "list" }
func (CatalogOrderEvent) Kind() string { return "order" }
func (UnsupportedEvent) Kind() string  { return "unsupported" }

func (TextEvent) isEvent()         {}
func (ButtonEvent) isEvent()       {}
func (ListEvent) isEvent()         {}
func (CatalogOrderEvent) isEvent() {}
func (UnsupportedEvent) isEvent()  {}
