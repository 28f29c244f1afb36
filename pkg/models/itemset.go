package models

import "strings"

// Itemset is a non-empty set of item labels annotated with its support: the
// fraction of transactions containing every item in the set. Items are kept
// sorted lexicographically so the label is canonical.
type Itemset struct {
	Items   []string `json:"items"`
	Support float64  `json:"support"`
}

// Label returns a canonical display form, e.g. "{bread, milk}".
func (s Itemset) Label() string {
	return "{" + strings.Join(s.Items, ", ") + "}"
}

// ItemsetKey returns a canonical lookup key for an item combination. Items
// must already be sorted. The unit separator keeps distinct combinations
// distinct even when labels contain commas.
func ItemsetKey(items []string) string {
	return strings.Join(items, "\x1f")
}
