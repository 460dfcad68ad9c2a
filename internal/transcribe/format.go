package transcribe

import (
	"fmt"
	"strings"
)

// FormatSegments renders segments one per line as "[MM:SS - MM:SS] text".
// Hours roll over into minutes, matching how chat clients show long
// recordings.
func FormatSegments(segments []Segment) string {
	lines := make([]string, 0, len(segments))
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		lines = append(lines, fmt.Sprintf("[%s - %s] %s", clock(seg.Start), clock(seg.End), text))
	}
	return strings.Join(lines, "\n")
}

func clock(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
