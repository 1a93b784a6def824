// Package sanitizer normalizes user-supplied text before validation and
// storage.
//
// All functions are idempotent and never fail: invalid input collapses to
// an empty string (or empty slice) and is then rejected by the
// validators.
//
// Normalization includes:
//   - Phone numbers: E.164 (+[country][number]), Indian and Bangladeshi
//     local formats accepted
//   - Emails: trimmed and lowercased
//   - Free text: whitespace collapsed, control characters removed
//   - Categories: lowercase with underscores, "Puja Samagri" becomes "puja_samagri"
//   - Slices: duplicates and empty values removed after normalization
package sanitizer
