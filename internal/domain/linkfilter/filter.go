// Package linkfilter partitions URLs against exclusion and inclusion lists.
package linkfilter

import "strings"

// Classification is a three-way partition of an input URL sequence.
type Classification struct {
	Included  []string `json:"included"`
	Excluded  []string `json:"excluded"`
	Remaining []string `json:"remaining"`
}

// Total returns the number of classified URLs.
func (c Classification) Total() int {
	return len(c.Included) + len(c.Excluded) + len(c.Remaining)
}

// Lists holds the static match lists. A nil Inclusion disables prioritisation.
type Lists struct {
	Exclusion []string
	Inclusion []string
}

// Authority returns the text between the second and third slash when the
// link carries a scheme, otherwise the link itself.
func Authority(link string) string {
	if !strings.Contains(link, "://") {
		return link
	}
	parts := strings.Split(link, "/")
	if len(parts) < 3 {
		return link
	}
	return parts[2]
}

// Classify assigns every link, in input order, to exactly one partition.
// Matching is literal substring containment against the authority.
// Duplicates are preserved; see Dedupe.
func Classify(links []string, lists Lists) Classification {
	c := Classification{Included: []string{}, Excluded: []string{}, Remaining: []string{}}
	for _, link := range links {
		switch Match(link, lists) {
		case Excluded:
			c.Excluded = append(c.Excluded, link)
		case Included:
			c.Included = append(c.Included, link)
		default:
			c.Remaining = append(c.Remaining, link)
		}
	}
	return c
}

// Class is the partition a single link falls into.
type Class int

// Partitions.
const (
	Remaining Class = iota
	Included
	Excluded
)

func (c Class) String() string {
	switch c {
	case Included:
		return "included"
	case Excluded:
		return "excluded"
	default:
		return "remaining"
	}
}

// Match classifies one link. Exclusion wins over inclusion.
func Match(link string, lists Lists) Class {
	auth := Authority(link)
	if containsAny(auth, lists.Exclusion) {
		return Excluded
	}
	if len(lists.Inclusion) > 0 && containsAny(auth, lists.Inclusion) {
		return Included
	}
	return Remaining
}

// Dedupe drops repeated links, keeping the first occurrence. It returns the
// unique links and the number dropped.
func Dedupe(links []string) ([]string, int) {
	seen := make(map[string]struct{}, len(links))
	out := make([]string, 0, len(links))
	for _, l := range links {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out, len(links) - len(out)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
