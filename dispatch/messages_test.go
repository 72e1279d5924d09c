package dispatch

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/go-lynx/cute/beans"
	"github.com/go-lynx/cute/i18n"
)

func newCatalog() *i18n.Catalog {
	c := i18n.NewCatalog("en")
	for lang, msgs := range DefaultMessages() {
		c.Add(lang, msgs)
	}
	return c
}

func TestMessages_English(t *testing.T) {
	err := &beans.Error{
		Kind:     beans.KindMethodArgumentMismatch,
		Bean:     "compA",
		Resolver: "handlers",
		Method:   "OnFailure",
		Expected: []string{"error"},
		Actual:   []string{"string", "int"},
	}
	assert.Equal(t,
		"method OnFailure of bean compA takes (string, int) but resolver handlers expects (error)",
		Message(err))
}

func TestMessages_Localized(t *testing.T) {
	m := NewMessages(newCatalog(), "zh-CN")
	err := &beans.Error{Kind: beans.KindNameConflict, Bean: "compA"}
	assert.Equal(t, "Bean 名称 compA 已被注册", m.Text(err))
}

func TestMessages_UnknownLanguageUsesFallback(t *testing.T) {
	m := NewMessages(newCatalog(), "fr")
	err := &beans.Error{Kind: beans.KindProtocolViolation, State: "Done"}
	assert.Equal(t, "bean creation requested in state Done", m.Text(err))
}

func TestMessages_PlainError(t *testing.T) {
	assert.Equal(t, "plain", Message(errors.New("plain")))
	assert.Equal(t, "", Message(nil))
}

func TestMessages_EveryKindHasTemplate(t *testing.T) {
	msgs := DefaultMessages()
	for _, k := range beans.Kinds() {
		assert.Contains(t, msgs["en"], MessageKey(k))
		assert.Contains(t, msgs["zh"], MessageKey(k))
	}
}
