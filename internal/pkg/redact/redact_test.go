package redact

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmail(t *testing.T) {
	assert.Equal(t, "an***@ex***.com", Email("ann@example.com"))
	assert.Equal(t, "***@***.io", Email("a@b.io"))
	assert.Equal(t, "", Email(""))
	assert.Equal(t, "no***", Email("no-at-sign"))
}

func TestContact(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "  ann@example.com ", want: "an***@ex***.com"},
		{in: "+7 999 123-45-67", want: "+7***"},
		{in: "@handle", want: "@h***"},
		{in: "Иван Петров", want: "Ив***"},
		{in: "ab", want: "***"},
		{in: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Contact(tt.in))
		})
	}
}
