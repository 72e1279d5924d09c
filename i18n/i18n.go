// Package i18n stores localized message templates.
//
// Templates use named placeholders in braces, e.g. "bean {bean} failed".
// Language selection goes through golang.org/x/text/language matching, so
// "en-GB" finds "en" and "zh-CN" finds "zh".
package i18n

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Catalog holds message templates by language and key.
type Catalog struct {
	mu       sync.RWMutex
	messages map[string]map[string]string
	fallback string
	// matcher is rebuilt lazily after changes
	matcher language.Matcher
	tags    []language.Tag
}

// NewCatalog creates an empty catalog. fallback is the language used when no
// requested language matches.
func NewCatalog(fallback string) *Catalog {
	return &Catalog{
		messages: make(map[string]map[string]string),
		fallback: fallback,
	}
}

// Add stores templates for lang, overriding existing keys.
func (c *Catalog) Add(lang string, msgs map[string]string) {
	lang = canonical(lang)
	c.mu.Lock()
	defer c.mu.Unlock()
	dict, ok := c.messages[lang]
	if !ok {
		dict = make(map[string]string, len(msgs))
		c.messages[lang] = dict
	}
	for k, v := range msgs {
		dict[k] = v
	}
	c.matcher = nil
}

// LoadYAML merges a document of the form {lang: {key: template}}.
func (c *Catalog) LoadYAML(r io.Reader) error {
	var doc map[string]map[string]string
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return fmt.Errorf("failed to decode message bundle: %w", err)
	}
	return c.merge(doc)
}

// LoadTOML merges a document with one table per language.
func (c *Catalog) LoadTOML(r io.Reader) error {
	var doc map[string]map[string]string
	if _, err := toml.NewDecoder(r).Decode(&doc); err != nil {
		return fmt.Errorf("failed to decode message bundle: %w", err)
	}
	return c.merge(doc)
}

func (c *Catalog) merge(doc map[string]map[string]string) error {
	for lang, msgs := range doc {
		if _, err := language.Parse(lang); err != nil {
			return fmt.Errorf("invalid language %q in message bundle: %w", lang, err)
		}
		c.Add(lang, msgs)
	}
	return nil
}

// Languages returns the languages present in the catalog, sorted.
func (c *Catalog) Languages() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.messages))
	for l := range c.messages {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// Match returns the catalog language best serving lang, or the fallback.
func (c *Catalog) Match(lang string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.messages) == 0 {
		return c.fallback
	}
	if c.matcher == nil {
		c.tags = c.tags[:0]
		if _, ok := c.messages[canonical(c.fallback)]; ok {
			// the first tag is the matcher default
			c.tags = append(c.tags, language.Make(c.fallback))
		}
		langs := make([]string, 0, len(c.messages))
		for l := range c.messages {
			langs = append(langs, l)
		}
		sort.Strings(langs)
		for _, l := range langs {
			if l != canonical(c.fallback) {
				c.tags = append(c.tags, language.Make(l))
			}
		}
		c.matcher = language.NewMatcher(c.tags)
	}
	_, idx, conf := c.matcher.Match(language.Make(lang))
	if conf == language.No {
		return c.fallback
	}
	return canonical(c.tags[idx].String())
}

// Lookup returns the raw template for key in the language matching lang.
// Missing keys fall back to the fallback language.
func (c *Catalog) Lookup(lang, key string) (string, bool) {
	matched := c.Match(lang)
	c.mu.RLock()
	defer c.mu.RUnlock()
	if tmpl, ok := c.messages[matched][key]; ok {
		return tmpl, true
	}
	if tmpl, ok := c.messages[canonical(c.fallback)][key]; ok {
		return tmpl, true
	}
	return "", false
}

// Format looks up key and substitutes {name} placeholders from vars.
func (c *Catalog) Format(lang, key string, vars map[string]string) (string, bool) {
	tmpl, ok := c.Lookup(lang, key)
	if !ok {
		return "", false
	}
	return Expand(tmpl, vars), true
}

// T returns the formatted message, or the key itself when no template exists.
func (c *Catalog) T(lang, key string, vars map[string]string) string {
	if s, ok := c.Format(lang, key, vars); ok {
		return s
	}
	return key
}

// Expand substitutes {name} placeholders. Unknown placeholders are kept.
func Expand(tmpl string, vars map[string]string) string {
	if len(vars) == 0 {
		return tmpl
	}
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

func canonical(lang string) string {
	tag, err := language.Parse(lang)
	if err != nil {
		return strings.ToLower(lang)
	}
	base, _ := tag.Base()
	return base.String()
}
