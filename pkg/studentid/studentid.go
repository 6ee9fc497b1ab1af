// Package studentid converts student identifiers between the hyphenated
// storage form (MLS-0201-19) and the slashed display form (MLS/0201/19).
// The conversion is lossless and case-normalizing in both directions.
package studentid

import "strings"

// ToStorage converts a display ID to its canonical storage form.
func ToStorage(id string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(id), "/", "-"))
}

// ToDisplay converts a storage ID to the form shown to voters and staff.
func ToDisplay(id string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(id), "-", "/"))
}
