package suggest

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/tbourn/go-intake-backend/internal/domain"
)

// notSpecified replaces unset values in prompts.
const notSpecified = "Not specified"

//go:embed prompts.yaml
var promptsYAML []byte

type fieldPrompt struct {
	Relevant []string `yaml:"relevant"`
	Template string   `yaml:"template"`
	Mock     string   `yaml:"mock"`

	tmpl *template.Template
}

// Catalogue is the parsed prompt configuration.
type Catalogue struct {
	System string                  `yaml:"system"`
	Fields map[string]*fieldPrompt `yaml:"fields"`
}

// ParseCatalogue decodes and compiles a prompt catalogue. Every field must
// be a narrative field of the record and reference only known fields.
func ParseCatalogue(data []byte) (*Catalogue, error) {
	var c Catalogue
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse prompts: %w", err)
	}
	if c.System == "" {
		return nil, fmt.Errorf("parse prompts: missing system instruction")
	}
	for name, fp := range c.Fields {
		if !domain.IsNarrative(name) {
			return nil, fmt.Errorf("parse prompts: %q is not a narrative field", name)
		}
		for _, r := range fp.Relevant {
			if _, ok := domain.Lookup(r); !ok {
				return nil, fmt.Errorf("parse prompts: %s: unknown relevant field %q", name, r)
			}
		}
		t, err := template.New(name).Option("missingkey=error").Parse(fp.Template)
		if err != nil {
			return nil, fmt.Errorf("parse prompts: %s: %w", name, err)
		}
		fp.tmpl = t
	}
	return &c, nil
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalogue
)

// DefaultCatalogue returns the embedded catalogue. It panics if the embedded
// file is invalid, which the package tests rule out.
func DefaultCatalogue() *Catalogue {
	defaultOnce.Do(func() {
		c, err := ParseCatalogue(promptsYAML)
		if err != nil {
			panic(err)
		}
		defaultCat = c
	})
	return defaultCat
}

// Supports reports whether field has a prompt.
func (c *Catalogue) Supports(field string) bool {
	_, ok := c.Fields[field]
	return ok
}

// Mock returns the canned answer for field.
func (c *Catalogue) Mock(field string) string {
	if fp, ok := c.Fields[field]; ok {
		return fp.Mock
	}
	return ""
}

// Relevant returns the fields whose values feed field's prompt.
func (c *Catalogue) Relevant(field string) []string {
	if fp, ok := c.Fields[field]; ok {
		return append([]string(nil), fp.Relevant...)
	}
	return nil
}

// Build renders the user prompt for field from r.
func (c *Catalogue) Build(field string, r domain.ApplicationRecord) (string, error) {
	fp, ok := c.Fields[field]
	if !ok {
		return "", ErrUnsupportedField
	}
	vals := make(map[string]string, len(fp.Relevant))
	for _, name := range fp.Relevant {
		vals[name] = display(r, name)
	}
	var buf bytes.Buffer
	if err := fp.tmpl.Execute(&buf, vals); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", field, err)
	}
	return buf.String(), nil
}

// ContextHash fingerprints the relevant fields of field in r. Records that
// differ only in other fields hash the same.
func (c *Catalogue) ContextHash(field string, r domain.ApplicationRecord) string {
	subset := make(map[string]any)
	if fp, ok := c.Fields[field]; ok {
		for _, name := range fp.Relevant {
			subset[name] = r.Value(name)
		}
	}
	// encoding/json sorts map keys, so the encoding is deterministic.
	buf, _ := json.Marshal(subset)
	sum := sha256.Sum256(append([]byte(field+"\x00"), buf...))
	return hex.EncodeToString(sum[:])
}

func display(r domain.ApplicationRecord, name string) string {
	switch v := r.Value(name).(type) {
	case nil:
		return notSpecified
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		if v == "" {
			return notSpecified
		}
		return v
	}
	return notSpecified
}
