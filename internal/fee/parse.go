// Package fee parses the free-text fee column of the kindergarten directory.
//
// A fee cell holds either a single monthly fee ("1500元/月/生") or several
// class-name/fee pairs run together ("成长班2500国际班4000"). ParseClasses
// turns either form into a list of Class values; it never fails.
package fee

import (
	"regexp"
	"strings"

	"github.com/sells-group/kgmap/internal/textnorm"
)

// Class is one (class name, fee) pair. An empty Name means the fee applies to
// the kindergarten as a whole.
type Class struct {
	Name string `json:"class"`
	Fee  string `json:"fee"`
}

var (
	// classFeePattern matches a run of CJK ideographs ending in 班, an optional
	// colon, then an integer or decimal.
	classFeePattern = regexp.MustCompile(`([\x{4e00}-\x{9fff}]+班)[:：]?(\d+(?:\.\d+)?)`)
	numberPattern   = regexp.MustCompile(`\d+(?:\.\d+)?`)

	currencyStripper = strings.NewReplacer("¥", "", "￥", "", ",", "")
	unitStripper     = strings.NewReplacer("¥", "", "￥", "", ",", "", "元", "", "/", "", "月", "", "生", "")
)

// ParseClasses splits raw fee text into class/fee pairs. Two or more
// class-suffixed matches yield one pair each; anything else yields a single
// pair with an empty class and the first number found (possibly "").
func ParseClasses(raw string) []Class {
	if raw == "" || raw == "None" {
		return []Class{{}}
	}

	folded := textnorm.FoldDigits(raw)
	matches := classFeePattern.FindAllStringSubmatch(currencyStripper.Replace(folded), -1)
	if len(matches) > 1 {
		classes := make([]Class, 0, len(matches))
		for _, m := range matches {
			classes = append(classes, Class{
				Name: strings.TrimSpace(m[1]),
				Fee:  ExtractNumber(strings.TrimSpace(m[2])),
			})
		}
		return classes
	}

	return []Class{{Fee: ExtractNumber(folded)}}
}

// ExtractNumber drops currency glyphs, thousands separators and the
// 元/月/生 unit words, then returns the first decimal number in text.
func ExtractNumber(text string) string {
	if text == "" || text == "None" {
		return ""
	}
	cleaned := unitStripper.Replace(textnorm.FoldDigits(text))
	return numberPattern.FindString(cleaned)
}
