package bot

import "strings"

// Reply button ids.
const (
	BtnMenu           = "BTN_MENU"
	BtnOrder          = "BTN_ORDER"
	BtnCatalog        = "BTN_CATALOG"
	BtnMore           = "BTN_MORE"
	BtnHistory        = "BTN_HISTORY"
	BtnContact        = "BTN_CONTACT"
	BtnBackHome       = "BTN_BACK_HOME"
	BtnPayBank        = "BTN_PAY_BANK"
	BtnPayCOD         = "BTN_PAY_COD"
	BtnConfirmPayment = "BTN_CONFIRM_PAYMENT"
	BtnCancelOrder    = "BTN_CANCEL_ORDER"
)

// Action is a screen or step the router can take.
type Action int

const (
	ActionHome Action = iota
	ActionMenu
	ActionOrderList
	ActionCatalog
	ActionMore
	ActionHistory
	ActionContact
	ActionCheckout
	ActionPayBank
	ActionPayCOD
	ActionConfirmPayment
	ActionCancelOrder
)

var actionNames = [...]string{
	ActionHome:           "home",
	ActionMenu:           "menu",
	ActionOrderList:      "order_list",
	ActionCatalog:        "catalog",
	ActionMore:           "more",
	ActionHistory:        "history",
	ActionContact:        "contact",
	ActionCheckout:       "checkout",
	ActionPayBank:        "pay_bank",
	ActionPayCOD:         "pay_cod",
	ActionConfirmPayment: "confirm_payment",
	ActionCancelOrder:    "cancel_order",
}

func (a Action) String() string {
	if a < 0 || int(a) >= len(actionNames) {
		return "unknown"
	}
	return actionNames[a]
}

var keywords = map[string]Action{
	"hi":       ActionHome,
	"hello":    ActionHome,
	"start":    ActionHome,
	"hey":      ActionHome,
	"hola":     ActionHome,
	"menu":     ActionMenu,
	"order":    ActionOrderList,
	"catalog":  ActionCatalog,
	"shop":     ActionCatalog,
	"more":     ActionMore,
	"history":  ActionHistory,
	"orders":   ActionHistory,
	"contact":  ActionContact,
	"help":     ActionContact,
	"support":  ActionContact,
	"pay":      ActionCheckout,
	"checkout": ActionCheckout,
	"cancel":   ActionCancelOrder,
}

var buttons = map[string]Action{
	BtnMenu:           ActionMenu,
	BtnOrder:          ActionOrderList,
	BtnCatalog:        ActionCatalog,
	BtnMore:           ActionMore,
	BtnHistory:        ActionHistory,
	BtnContact:        ActionContact,
	BtnBackHome:       ActionHome,
	BtnPayBank:        ActionPayBank,
	BtnPayCOD:         ActionPayCOD,
	BtnConfirmPayment: ActionConfirmPayment,
	BtnCancelOrder:    ActionCancelOrder,
}

// KeywordAction maps free text to an action. Matching ignores case and
// surrounding space; anything unrecognised goes home.
func KeywordAction(text string) Action {
	if action, ok := keywords[strings.ToLower(strings.TrimSpace(text))]; ok {
		return action
	}
	return ActionHome
}

// ButtonAction maps a reply button id to an action. Unknown ids go home.
func ButtonAction(id string) Action {
	if action, ok := buttons[id]; ok {
		return action
	}
	return ActionHome
}
