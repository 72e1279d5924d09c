package dispatch

import (
	"errors"
	"strings"

	"github.com/go-lynx/cute/beans"
	"github.com/go-lynx/cute/i18n"
)

// fixed English templates, used when no catalog template is available
var englishTemplates = map[beans.ErrorKind]string{
	beans.KindScan:                   "component scan failed: {cause}",
	beans.KindInstantiation:          "failed to instantiate bean {bean}: {cause}",
	beans.KindNameConflict:           "bean name {bean} is already registered",
	beans.KindResolver:               "resolver {resolver} failed to process bean {bean}: {cause}",
	beans.KindMethodNotStatic:        "method {method} of bean {bean} must be static for resolver {resolver}",
	beans.KindMethodArgumentMismatch: "method {method} of bean {bean} takes ({actual}) but resolver {resolver} expects ({expected})",
	beans.KindProtocolViolation:      "bean creation requested in state {state}",
	beans.KindUndispatchable:         "undispatchable failure: {cause}",
}

// DefaultMessages returns the built-in localized templates, keyed by
// language, for loading into an i18n catalog.
func DefaultMessages() map[string]map[string]string {
	en := make(map[string]string, len(englishTemplates))
	for k, v := range englishTemplates {
		en[MessageKey(k)] = v
	}
	return map[string]map[string]string{
		"en": en,
		"zh": {
			MessageKey(beans.KindScan):                   "组件扫描失败: {cause}",
			MessageKey(beans.KindInstantiation):          "实例化 Bean {bean} 失败: {cause}",
			MessageKey(beans.KindNameConflict):           "Bean 名称 {bean} 已被注册",
			MessageKey(beans.KindResolver):               "解析器 {resolver} 处理 Bean {bean} 失败: {cause}",
			MessageKey(beans.KindMethodNotStatic):        "Bean {bean} 的方法 {method} 必须是静态方法 (解析器 {resolver})",
			MessageKey(beans.KindMethodArgumentMismatch): "Bean {bean} 的方法 {method} 参数为 ({actual})，解析器 {resolver} 期望 ({expected})",
			MessageKey(beans.KindProtocolViolation):      "在状态 {state} 下请求创建 Bean",
			MessageKey(beans.KindUndispatchable):         "无法分发的错误: {cause}",
		},
	}
}

// MessageKey is the catalog key of a kind's template.
func MessageKey(k beans.ErrorKind) string {
	return "error." + k.String()
}

// Messages renders human readable failure messages.
type Messages struct {
	catalog *i18n.Catalog
	lang    string
}

// NewMessages renders with c in lang. A nil catalog renders English.
func NewMessages(c *i18n.Catalog, lang string) *Messages {
	return &Messages{catalog: c, lang: lang}
}

// Text returns the message for err. Localized templates are preferred; any
// failure of the localized path falls back to the English template.
func (m *Messages) Text(err error) string {
	if err == nil {
		return ""
	}
	var be *beans.Error
	if !errors.As(err, &be) {
		return err.Error()
	}
	vars := templateVars(be)
	if s, ok := m.localized(be.Kind, vars); ok {
		return s
	}
	if tmpl, ok := englishTemplates[be.Kind]; ok {
		return i18n.Expand(tmpl, vars)
	}
	return be.Error()
}

func (m *Messages) localized(kind beans.ErrorKind, vars map[string]string) (s string, ok bool) {
	if m == nil || m.catalog == nil {
		return "", false
	}
	defer func() {
		if r := recover(); r != nil {
			s, ok = "", false
		}
	}()
	return m.catalog.Format(m.lang, MessageKey(kind), vars)
}

func templateVars(be *beans.Error) map[string]string {
	cause := ""
	if be.Cause != nil {
		cause = be.Cause.Error()
	}
	return map[string]string{
		"bean":     be.Bean,
		"resolver": be.Resolver,
		"method":   be.Method,
		"expected": strings.Join(be.Expected, ", "),
		"actual":   strings.Join(be.Actual, ", "),
		"state":    be.State,
		"cause":    cause,
	}
}

// Message renders err with the default English templates.
func Message(err error) string {
	return NewMessages(nil, "").Text(err)
}
