// Package sanitize strips unsafe markup and script protocols from free-text
// input before it is persisted or submitted.
//
// Markup removal is delegated to a bluemonday strict policy. Because the
// policy re-encodes entities in the text it keeps, the output is unescaped
// and the whole pipeline is repeated until it stops changing, so that
// sanitizing an already sanitized value is a no-op.
package sanitize

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/tbourn/go-intake-backend/internal/domain"
)

// maxPasses bounds the fixed-point iteration. Inputs that still change after
// this many passes are adversarial; angle brackets are dropped outright.
const maxPasses = 8

var (
	// A protocol only counts when it is used as a URL scheme, i.e. the colon
	// is followed directly by a payload. "data: ..." in prose is kept.
	reProtocol = regexp.MustCompile(`(?i)(?:javascript|vbscript|data):(\S)`)
	reHandler  = regexp.MustCompile(`(?i)\bon[a-z]+\s*=`)

	dropBrackets = strings.NewReplacer("<", "", ">", "")
)

// Sanitizer removes HTML markup, dangerous URL protocols and inline event
// handlers from strings. The zero value is not usable; call New.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// New returns a Sanitizer backed by a strict (no tags allowed) policy.
func New() *Sanitizer {
	return &Sanitizer{policy: bluemonday.StrictPolicy()}
}

var std = New()

// String sanitizes s with the package-level Sanitizer.
func String(s string) string { return std.String(s) }

// Record sanitizes every string field of r with the package-level Sanitizer.
func Record(r domain.ApplicationRecord) domain.ApplicationRecord { return std.Record(r) }

// String returns s with markup, script protocols and on*= handlers removed.
// The result is stable: String(String(x)) == String(x).
func (s *Sanitizer) String(in string) string {
	if in == "" {
		return ""
	}
	cur := in
	for i := 0; i < maxPasses; i++ {
		next := s.pass(cur)
		if next == cur {
			return cur
		}
		cur = next
	}
	// Without brackets or entities no markup remains, so only protocol
	// removal can still change the value.
	for {
		next := stripInline(dropBrackets.Replace(html.UnescapeString(cur)))
		if next == cur {
			return cur
		}
		cur = next
	}
}

func (s *Sanitizer) pass(in string) string {
	out := s.policy.Sanitize(in)
	out = html.UnescapeString(out)
	return stripInline(out)
}

func stripInline(in string) string {
	out := reProtocol.ReplaceAllString(in, "$1")
	return reHandler.ReplaceAllString(out, "")
}

// Record returns a copy of r with every string field sanitized. Enum fields
// are treated as plain strings; numeric fields are left untouched.
func (s *Sanitizer) Record(r domain.ApplicationRecord) domain.ApplicationRecord {
	return r.MapStrings(s.String)
}
