// Package identity derives storage-safe document identifiers from canonical article URLs.
package identity

import (
	"errors"
	"regexp"
	"strings"
)

// ErrEmptyURL is returned when no identifier can be derived.
var ErrEmptyURL = errors.New("empty url")

const filler = "_"

var (
	schemeExpr   = regexp.MustCompile(`^https?://`)
	reservedExpr = regexp.MustCompile(`[.#$\[\]/]`)
	queryExpr    = regexp.MustCompile(`[?&=]`)
	percentExpr  = regexp.MustCompile(`%[0-9A-Fa-f]{2}`)
	repeatedExpr = regexp.MustCompile(`_{2,}`)
)

// DocID maps a canonical URL to its document identifier. It is pure: the same URL
// always yields the same identifier.
func DocID(rawURL string) string {
	id := schemeExpr.ReplaceAllString(strings.TrimSpace(rawURL), "")
	id = reservedExpr.ReplaceAllString(id, filler)
	id = queryExpr.ReplaceAllString(id, filler)
	id = percentExpr.ReplaceAllString(id, filler)
	return repeatedExpr.ReplaceAllString(id, filler)
}

// Resolve is DocID with validation of the input.
func Resolve(rawURL string) (string, error) {
	id := DocID(rawURL)
	if id == "" || id == filler {
		return "", ErrEmptyURL
	}
	return id, nil
}
