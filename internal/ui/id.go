package ui

import "strings"

// HighlightID returns id with its unique prefix emphasized.
func HighlightID(id string, prefixLen int) string {
	if id == "" || prefixLen <= 0 || prefixLen > len(id) {
		return id
	}
	return Render(KeyStyle, id[:prefixLen]) + id[prefixLen:]
}

// ShortID returns the first eight characters of an ID.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// UniqueIDPrefixLengths returns the shortest unique prefix length for each
// ID, keyed by the lower-cased ID.
func UniqueIDPrefixLengths(ids []string) map[string]int {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]bool)
	for _, id := range ids {
		lower := strings.ToLower(id)
		if lower == "" || seen[lower] {
			continue
		}
		seen[lower] = true
		unique = append(unique, lower)
	}

	lengths := make(map[string]int, len(unique))
	for _, id := range unique {
		lengths[id] = uniquePrefixLength(id, unique)
	}
	return lengths
}

func uniquePrefixLength(id string, ids []string) int {
	for length := 1; length <= len(id); length++ {
		prefix := id[:length]
		unique := true
		for _, other := range ids {
			if other != id && strings.HasPrefix(other, prefix) {
				unique = false
				break
			}
		}
		if unique {
			return length
		}
	}
	return len(id)
}
