package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskJWT(t *testing.T) {
	assert.Equal(t, "", MaskJWT(""))
	assert.Equal(t, "*****", MaskJWT("short"))
	assert.Equal(t, "eyJ...xyz", MaskJWT("eyJhbGciOiJIUzI1NiJ9.payload.sigxyz"))
}

func TestMaskEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"tenant.one@example.com", "te...e@example.com"},
		{"ab@example.com", "**@example.com"},
		{"not-an-email", "no...il"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, MaskEmail(tt.in))
		})
	}
}

func TestGetLoggerIsShared(t *testing.T) {
	IsTest = true
	assert.Same(t, GetLogger(), GetLogger())
}
