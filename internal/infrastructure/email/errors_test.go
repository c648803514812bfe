package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContainsAny(t *testing.T) {
	msg := "535 Authentication Failed"

	assert.True(t, containsAny(msg, "535", "auth"))
	assert.False(t, containsAny(msg, "404", "missing"))
	assert.False(t, containsAny(msg, ""))
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status    int
		temporary bool
	}{
		{status: 400},
		{status: 401},
		{status: 403},
		{status: 429, temporary: true},
		{status: 500, temporary: true},
		{status: 503, temporary: true},
	}
	for _, tt := range tests {
		err := classifyStatus(tt.status, "x")
		tm, ok := err.(interface{ Temporary() bool })
		assert.True(t, ok)
		assert.Equal(t, tt.temporary, tm.Temporary(), "status %d", tt.status)
	}
}
