package detect

import "strings"

// Denylist is a fixed set of lowercase terms excluded from reported
// brands. A brand is dropped when its lowercase form contains any term.
type Denylist []string

// DefaultDenylist excludes the operator's own corporate name and its
// known variants.
func DefaultDenylist() Denylist {
	return Denylist{"hergon", "grupo hergon", "hergon sa", "grupo hergon sa"}
}

// Filter returns brands with every denylisted name removed, preserving
// order. Matching is case-insensitive by substring, so "Grupo HERGON
// S.A. de C.V." is caught by the "hergon" term.
func (d Denylist) Filter(brands []string) []string {
	if len(d) == 0 {
		return brands
	}
	out := make([]string, 0, len(brands))
	for _, brand := range brands {
		lower := strings.ToLower(brand)
		excluded := false
		for _, term := range d {
			if strings.Contains(lower, term) {
				excluded = true
				break
			}
		}
		if !excluded {
			out = append(out, brand)
		}
	}
	return out
}

// Dedupe removes case-insensitive duplicates, keeping the first-seen
// casing and the relative order. Idempotent.
func Dedupe(brands []string) []string {
	seen := make(map[string]struct{}, len(brands))
	out := make([]string, 0, len(brands))
	for _, brand := range brands {
		key := strings.ToLower(brand)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, brand)
	}
	return out
}
