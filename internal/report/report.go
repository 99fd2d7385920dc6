// Package report summarizes cached geocodes by match level.
package report

import (
	"cmp"
	"slices"

	"github.com/sells-group/kgmap/internal/geocache"
	"github.com/sells-group/kgmap/pkg/geocode"
)

// UnknownLevel labels entries without a match level.
const UnknownLevel = "未知"

// LevelCount is the tally for one match level.
type LevelCount struct {
	Level      string  `json:"level" yaml:"level"`
	Count      int     `json:"count" yaml:"count"`
	Percent    float64 `json:"percent" yaml:"percent"`
	Acceptable bool    `json:"acceptable" yaml:"acceptable"`
}

// Summary is the precision breakdown of a cache.
type Summary struct {
	Total               int          `json:"total" yaml:"total"`
	AcceptableCount     int          `json:"acceptable_count" yaml:"acceptable_count"`
	AcceptablePercent   float64      `json:"acceptable_percent" yaml:"acceptable_percent"`
	UnacceptablePercent float64      `json:"unacceptable_percent" yaml:"unacceptable_percent"`
	AcceptableLevels    []string     `json:"acceptable_levels" yaml:"acceptable_levels"`
	Levels              []LevelCount `json:"levels" yaml:"levels"`
}

// Summarize tallies entries by level, ordered by count descending and then
// level ascending. An empty cache yields zero percentages.
func Summarize(entries geocache.Entries, policy *geocode.Policy) Summary {
	counts := make(map[string]int)
	for _, g := range entries {
		level := g.Level
		if level == "" {
			level = UnknownLevel
		}
		counts[level]++
	}

	s := Summary{
		Total:            len(entries),
		AcceptableLevels: policy.Levels(),
		Levels:           make([]LevelCount, 0, len(counts)),
	}
	for level, n := range counts {
		ok := policy.Acceptable(level)
		if ok {
			s.AcceptableCount += n
		}
		s.Levels = append(s.Levels, LevelCount{
			Level:      level,
			Count:      n,
			Percent:    percent(n, s.Total),
			Acceptable: ok,
		})
	}
	slices.SortFunc(s.Levels, func(a, b LevelCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Level, b.Level)
	})

	if s.Total > 0 {
		s.AcceptablePercent = percent(s.AcceptableCount, s.Total)
		s.UnacceptablePercent = 100 - s.AcceptablePercent
	}
	return s
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}
