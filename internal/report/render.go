package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

const rule = "=================================================="

// WriteText renders s as the console table.
func WriteText(w io.Writer, s Summary) error {
	ok := color.New(color.FgGreen)
	warn := color.New(color.FgYellow)

	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\n坐标精确度统计:\n%s\n", rule, rule)
	for _, lc := range s.Levels {
		status := ok.Sprint("✓ 精确")
		if !lc.Acceptable {
			status = warn.Sprint("⚠ 可能不精确")
		}
		fmt.Fprintf(&b, "%-15s %3d个 (%5.1f%%) %s\n", lc.Level, lc.Count, lc.Percent, status)
	}
	fmt.Fprintf(&b, "%s\n", strings.Repeat("-", len(rule)))
	fmt.Fprintf(&b, "总计: %d个地点\n", s.Total)
	fmt.Fprintf(&b, "精确坐标: %d个 (%.1f%%)\n", s.AcceptableCount, s.AcceptablePercent)
	fmt.Fprintf(&b, "可能不精确: %d个 (%.1f%%)\n", s.Total-s.AcceptableCount, s.UnacceptablePercent)

	_, err := io.WriteString(w, b.String())
	return eris.Wrap(err, "report: write text")
}

// WriteJSON renders s as indented JSON.
func WriteJSON(w io.Writer, s Summary) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(s), "report: write json")
}

// WriteYAML renders s as YAML.
func WriteYAML(w io.Writer, s Summary) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return eris.Wrap(err, "report: write yaml")
	}
	return eris.Wrap(enc.Close(), "report: write yaml")
}

// Write renders s in the named format: text, json or yaml.
func Write(w io.Writer, s Summary, format string) error {
	switch format {
	case "", "text":
		return WriteText(w, s)
	case "json":
		return WriteJSON(w, s)
	case "yaml":
		return WriteYAML(w, s)
	default:
		return eris.Errorf("report: unknown format %q", format)
	}
}
