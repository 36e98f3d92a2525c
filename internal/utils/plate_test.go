package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanPlate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercase with dash", "abc-1234", "ABC1234"},
		{"surrounding whitespace", "  ABC1234  ", "ABC1234"},
		{"mercosul lowercase", "abc1d23", "ABC1D23"},
		{"dots and spaces", "A.B C-12 34", "ABC1234"},
		{"already clean", "XYZ9876", "XYZ9876"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanPlate(tt.input))
		})
	}
}

func TestIsValidPlate(t *testing.T) {
	tests := []struct {
		name  string
		plate string
		valid bool
	}{
		{"legacy format", "ABC1234", true},
		{"mercosul format", "ABC1D23", true},
		{"any 7 alphanumerics", "1234567", true},
		{"too short", "ABC123", false},
		{"too long", "ABC12345", false},
		{"lowercase not cleaned", "abc1234", false},
		{"with dash", "ABC-1234", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidPlate(tt.plate))
		})
	}
}

func TestPlateFormats(t *testing.T) {
	assert.True(t, IsLegacyFormat("ABC1234"))
	assert.False(t, IsLegacyFormat("ABC1D23"))

	assert.True(t, IsMercosulFormat("ABC1D23"))
	assert.False(t, IsMercosulFormat("ABC1234"))
}

func TestFormatPlate(t *testing.T) {
	assert.Equal(t, "ABC-1234", FormatPlate("abc1234"))
	assert.Equal(t, "ABC1D23", FormatPlate("ABC1D23"))
	assert.Equal(t, "ABC-1234", FormatPlate("ABC-1234"))
}

func TestNormalizePlate(t *testing.T) {
	cleaned, ok := NormalizePlate(" abc-1234 ")
	assert.True(t, ok)
	assert.Equal(t, "ABC1234", cleaned)

	cleaned, ok = NormalizePlate("ABC12")
	assert.False(t, ok)
	assert.Equal(t, "ABC12", cleaned)

	_, ok = NormalizePlate("")
	assert.False(t, ok)
}
