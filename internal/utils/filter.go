package utils

// SeenFilter drops repeated keys, keeping the first occurrence.
// It is not safe for concurrent use.
type SeenFilter struct {
	seen map[string]struct{}
}

// NewSeenFilter creates a filter that already treats the given keys as seen.
func NewSeenFilter(exclude ...string) *SeenFilter {
	seen := make(map[string]struct{}, len(exclude))
	for _, k := range exclude {
		seen[k] = struct{}{}
	}
	return &SeenFilter{seen: seen}
}

// ShouldInclude reports whether key is new, and records it.
func (f *SeenFilter) ShouldInclude(key string) bool {
	if _, ok := f.seen[key]; ok {
		return false
	}
	f.seen[key] = struct{}{}
	return true
}

// Distinct returns keys with duplicates and empty strings removed, order preserved.
func Distinct(keys []string) []string {
	f := NewSeenFilter("")
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if f.ShouldInclude(k) {
			out = append(out, k)
		}
	}
	return out
}
