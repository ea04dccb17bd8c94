package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeywordAction(t *testing.T) {
	tests := map[string]Action{
		"hi":           ActionHome,
		"  HELLO ":     ActionHome,
		"Hola":         ActionHome,
		"menu":         ActionMenu,
		"order":        ActionOrderList,
		"shop":         ActionCatalog,
		"more":         ActionMore,
		"orders":       ActionHistory,
		"help":         ActionContact,
		"checkout":     ActionCheckout,
		"cancel":       ActionCancelOrder,
		"what is this": ActionHome,
		"":             ActionHome,
	}
	for text, want := range tests {
		assert.Equal(t, want, KeywordAction(text), "text %q", text)
	}
}

func TestButtonAction(t *testing.T) {
	assert.Equal(t, ActionMenu, ButtonAction(BtnMenu))
	assert.Equal(t, ActionHome, ButtonAction(BtnBackHome))
	assert.Equal(t, ActionConfirmPayment, ButtonAction(BtnConfirmPayment))
	assert.Equal(t, ActionHome, ButtonAction("BTN_UNKNOWN"))
	assert.Equal(t, "pay_cod", ButtonAction(BtnPayCOD).String())
	assert.Equal(t, "unknown", Action(99).String())
}
