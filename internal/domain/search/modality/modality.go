// Package modality defines the search modes a request may combine.
package modality

import (
	"fmt"
	"sort"
)

// Modality is one search mode.
type Modality string

const (
	// Text is lexical full-text search over boosted fields.
	Text Modality = "text"
	// Attribute is conjunctive term/range filtering with facet counts.
	Attribute Modality = "attribute"
	// Specification matches normalized name/value/unit constraints.
	Specification Modality = "specification"
	// Image is k-nearest-neighbor search over image vectors.
	Image Modality = "image"
)

// All returns every modality in canonical order.
func All() []Modality {
	return []Modality{Text, Attribute, Specification, Image}
}

// Parse validates a modality string.
func Parse(s string) (Modality, error) {
	switch Modality(s) {
	case Text, Attribute, Specification, Image:
		return Modality(s), nil
	default:
		return "", fmt.Errorf("unknown modality %q", s)
	}
}

// Normalize sorts and deduplicates a modality set.
func Normalize(ms []Modality) []Modality {
	seen := make(map[Modality]bool, len(ms))
	out := make([]Modality, 0, len(ms))
	for _, m := range ms {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
