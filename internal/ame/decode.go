package ame

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// decodeName interprets raw bytes from a .var file as UTF-8, falling back
// to Latin-1 for files written by pre-Unicode releases.
func decodeName(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}

	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(decoded)
}
