package utils

import (
	"regexp"
	"strings"
)

var (
	platePattern    = regexp.MustCompile(`^[A-Z0-9]{7}$`)
	legacyPattern   = regexp.MustCompile(`^[A-Z]{3}[0-9]{4}$`)
	mercosulPattern = regexp.MustCompile(`^[A-Z]{3}[0-9][A-Z][0-9]{2}$`)
	nonPlateChars   = regexp.MustCompile(`[^A-Z0-9]`)
)

// CleanPlate uppercases a plate and strips separators and whitespace
// ("abc-1d23" becomes "ABC1D23")
func CleanPlate(plate string) string {
	plate = strings.ToUpper(strings.TrimSpace(plate))
	return nonPlateChars.ReplaceAllString(plate, "")
}

// IsValidPlate reports whether a cleaned plate has exactly 7 alphanumeric
// characters. This is the gate applied before any browser work starts.
func IsValidPlate(plate string) bool {
	return platePattern.MatchString(plate)
}

// IsLegacyFormat reports whether the plate follows the pre-Mercosul
// AAA9999 format
func IsLegacyFormat(plate string) bool {
	return legacyPattern.MatchString(plate)
}

// IsMercosulFormat reports whether the plate follows the Mercosul
// AAA9A99 format
func IsMercosulFormat(plate string) bool {
	return mercosulPattern.MatchString(plate)
}

// FormatPlate formats a legacy plate with its conventional dash
// ("ABC1234" becomes "ABC-1234"); Mercosul plates have no separator
func FormatPlate(plate string) string {
	cleaned := CleanPlate(plate)
	if IsLegacyFormat(cleaned) {
		return cleaned[:3] + "-" + cleaned[3:]
	}
	return cleaned
}

// NormalizePlate cleans and validates a plate in one step
func NormalizePlate(plate string) (string, bool) {
	cleaned := CleanPlate(plate)
	return cleaned, IsValidPlate(cleaned)
}
