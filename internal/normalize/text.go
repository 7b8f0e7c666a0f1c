package normalize

import "strings"

func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// AmenitySet comma-splits, trims, lower-cases, and de-duplicates amenity
// values. Amenities are keyword-matched downstream, so casing is folded
// here once.
func AmenitySet(raw []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, item := range raw {
		for _, part := range strings.Split(item, ",") {
			part = strings.ToLower(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			if _, dup := seen[part]; dup {
				continue
			}
			seen[part] = struct{}{}
			out = append(out, part)
		}
	}
	return out
}
