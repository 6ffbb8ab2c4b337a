package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"4804.11.00", "48041100"},
		{"4804 11 00", "48041100"},
		{"48041100", "48041100"},
		{" 0902.40 ", "090240"},
		{"", ""},
		{"abc", ""},
		{"HS-12a3", "123"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), "Normalize(%q)", tt.in)
	}
}

func TestNormalizeCountry(t *testing.T) {
	assert.Equal(t, "KE", NormalizeCountry(" ke "))
	assert.Equal(t, "UG", NormalizeCountry("UG"))
	assert.Equal(t, "", NormalizeCountry("   "))
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "Black tea bags", normalizeName("  Black   tea\tbags "))
	assert.Equal(t, "", normalizeName("   "))
}
