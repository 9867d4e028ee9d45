package themes

import (
	"fmt"
	"strings"
)

const sampleTrackCount = 3

// FormatSummary returns a human-readable listing of themes with the first
// three tracks of each.
func FormatSummary(themes []Theme) string {
	var sb strings.Builder

	if len(themes) == 0 {
		sb.WriteString("No themes found\n")
		return sb.String()
	}

	total := 0
	for _, t := range themes {
		total += t.TrackCount
	}

	themeWord := "theme"
	if len(themes) > 1 {
		themeWord = "themes"
	}
	fmt.Fprintf(&sb, "Found %d %s covering %d tracks\n", len(themes), themeWord, total)

	for i, t := range themes {
		sb.WriteString("\n")
		sb.WriteString(formatTheme(i+1, t))
	}
	return sb.String()
}

func formatTheme(num int, t Theme) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%d. %s (%d tracks)\n", num, t.Name, t.TrackCount)
	fmt.Fprintf(&sb, "   %s\n", t.Description)

	sampleCount := min(sampleTrackCount, len(t.Tracks))
	for i := 0; i < sampleCount; i++ {
		track := t.Tracks[i]
		fmt.Fprintf(&sb, "  • \"%s\" - %s\n", track.Title, track.Artist)
	}

	if remaining := len(t.Tracks) - sampleTrackCount; remaining > 0 {
		fmt.Fprintf(&sb, "  ... and %d more\n", remaining)
	}
	return sb.String()
}
