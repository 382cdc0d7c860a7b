package thread

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// MaxExpansions caps the "show more" count kept for a single comment.
const MaxExpansions = 10000

// ParseExpansions reads the "id:n,id2:m" form used in query strings into
// the map Apply takes. A bare id counts as one expansion; counts are capped
// at MaxExpansions.
func ParseExpansions(raw string) (map[string]int, error) {
	out := make(map[string]int)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, count, found := strings.Cut(part, ":")
		n := 1
		if found {
			v, err := strconv.Atoi(count)
			if err != nil || v < 0 {
				return nil, fmt.Errorf("invalid expansion %q", part)
			}
			n = v
		}
		if id == "" {
			return nil, fmt.Errorf("invalid expansion %q", part)
		}
		out[id] = min(out[id]+min(n, MaxExpansions), MaxExpansions)
	}
	return out, nil
}

// FormatExpansions is the inverse of ParseExpansions. Ids are sorted and
// zero counts dropped.
func FormatExpansions(expansions map[string]int) string {
	ids := make([]string, 0, len(expansions))
	for id, n := range expansions {
		if n > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id + ":" + strconv.Itoa(expansions[id])
	}
	return strings.Join(parts, ",")
}
