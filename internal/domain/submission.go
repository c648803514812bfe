package domain

import (
	"encoding/json"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// Placeholder replaces an absent optional field in the rendered body.
const Placeholder = "—"

var validate = validator.New()

// emailShape only gates whether contact is usable as a Reply-To header.
// It is not RFC 5322 validation.
var emailShape = regexp.MustCompile(`(?i)^[^\s\v\p{Z}\x{FEFF}@]+@[^\s\v\p{Z}\x{FEFF}@]+\.[^\s\v\p{Z}\x{FEFF}@]+$`)

// Submission is a contact-form payload.
type Submission struct {
	Name    string `json:"name" validate:"required"`
	Contact string `json:"contact" validate:"required"`
	Link    string `json:"link,omitempty"`
	Comment string `json:"comment,omitempty"`
}

// SubmissionFromMap builds a Submission from an untyped JSON object.
// Strings are taken as-is, null and missing keys become empty, any other
// JSON value is kept as its JSON text.
func SubmissionFromMap(raw map[string]any) Submission {
	return Submission{
		Name:    stringField(raw, "name"),
		Contact: stringField(raw, "contact"),
		Link:    stringField(raw, "link"),
		Comment: stringField(raw, "comment"),
	}
}

func stringField(raw map[string]any, key string) string {
	v, ok := raw[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// Validate checks name and contact after trimming.
func (s Submission) Validate() error {
	trimmed := Submission{
		Name:    trimSpace(s.Name),
		Contact: trimSpace(s.Contact),
	}
	err := validate.Struct(trimmed)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return ErrRequired("name", "contact")
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, strings.ToLower(fe.Field()))
	}
	return ErrRequired(fields...)
}

// ReplyTo returns the trimmed contact when it looks like an email address.
func (s Submission) ReplyTo() (string, bool) {
	c := trimSpace(s.Contact)
	if emailShape.MatchString(c) {
		return c, true
	}
	return "", false
}

// trimSpace strips Unicode white space and the byte order mark, the set
// emailShape refuses inside an address.
func trimSpace(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '\uFEFF'
	})
}

// LinkOrPlaceholder returns Link, or Placeholder when it is empty.
func (s Submission) LinkOrPlaceholder() string { return orPlaceholder(s.Link) }

// CommentOrPlaceholder returns Comment, or Placeholder when it is empty.
func (s Submission) CommentOrPlaceholder() string { return orPlaceholder(s.Comment) }

func orPlaceholder(v string) string {
	if v == "" {
		return Placeholder
	}
	return v
}
