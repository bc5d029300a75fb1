package output

import (
	"fmt"
	"strings"
)

// FormatHeader returns a markdown header.
func FormatHeader(level int, s string) string {
	if level < 1 {
		level = 1
	}
	return strings.Repeat("#", level) + " " + s
}

// FormatKeyValue returns a markdown list item "- **key**: value".
func FormatKeyValue(key, value string) string {
	return fmt.Sprintf("- **%s**: %s", key, value)
}

// FormatCodeBlock returns a fenced code block.
func FormatCodeBlock(lang, code string) string {
	return "```" + lang + "\n" + strings.TrimRight(code, "\n") + "\n```"
}

// FormatSeconds formats a timeline offset or duration in seconds.
func FormatSeconds(s float64) string {
	if s >= 60 {
		return fmt.Sprintf("%dm %.1fs", int(s)/60, s-float64(int(s)/60*60))
	}
	return fmt.Sprintf("%.2fs", s)
}
