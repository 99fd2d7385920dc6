package geocode

import "slices"

// DefaultPreciseLevels are the AMap match levels treated as precise enough
// to stop searching.
var DefaultPreciseLevels = []string{"兴趣点", "门牌号", "单元号", "楼层", "房间", "门址"}

// Policy decides whether a match level is acceptable.
type Policy struct {
	levels []string
}

// NewPolicy creates a Policy over the given allow-list. An empty list falls
// back to DefaultPreciseLevels.
func NewPolicy(levels []string) *Policy {
	if len(levels) == 0 {
		levels = DefaultPreciseLevels
	}
	return &Policy{levels: slices.Clone(levels)}
}

// Acceptable reports whether level is in the allow-list. Matching is exact.
func (p *Policy) Acceptable(level string) bool {
	return slices.Contains(p.levels, level)
}

// Levels returns the allow-list in configured order.
func (p *Policy) Levels() []string {
	return slices.Clone(p.levels)
}
