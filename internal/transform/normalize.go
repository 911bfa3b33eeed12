package transform

import "golang.org/x/text/unicode/norm"

// normText canonicalizes free-text identity fields (titles, artist names)
// to NFC. The same normalization is applied on the write path and on the
// lookup's query values, so the exact-match join sees one spelling of any
// composed/decomposed Unicode pair without loosening the match itself.
func normText(s string) string {
	return norm.NFC.String(s)
}
