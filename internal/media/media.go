// Package media turns the relative asset paths the upstream API returns
// into absolute URLs on the media host.
package media

import (
	"net/url"
	"strings"
)

// DefaultBaseURL is the public media host.
const DefaultBaseURL = "https://media.retroachievements.org"

// Normalizer prefixes site-relative paths with a media base URL.
type Normalizer struct {
	base string
}

// NewNormalizer creates a normalizer for the given base URL.
func NewNormalizer(base string) *Normalizer {
	if base == "" {
		base = DefaultBaseURL
	}
	return &Normalizer{base: strings.TrimRight(base, "/")}
}

// Normalize returns base+path when path starts with "/". Anything else,
// including absolute URLs and the empty string, is returned unchanged.
func (n *Normalizer) Normalize(path string) string {
	if strings.HasPrefix(path, "/") {
		return n.base + path
	}
	return path
}

// NormalizeAll normalizes each field in place.
func (n *Normalizer) NormalizeAll(fields ...*string) {
	for _, f := range fields {
		if f != nil {
			*f = n.Normalize(*f)
		}
	}
}

// NormalizePtr normalizes an optional field. Nil and empty values become nil.
func (n *Normalizer) NormalizePtr(path *string) *string {
	if path == nil || *path == "" {
		return nil
	}
	v := n.Normalize(*path)
	return &v
}

// Badge returns the badge image URL for a badge name. Names that are already
// URLs are returned unchanged.
func (n *Normalizer) Badge(name string) string {
	if name == "" || strings.HasPrefix(name, "http") {
		return name
	}
	return n.base + "/Badge/" + name + ".png"
}

// UserPic returns the avatar URL for a user name.
func (n *Normalizer) UserPic(user string) string {
	return n.base + "/UserPic/" + url.PathEscape(user) + ".png"
}
