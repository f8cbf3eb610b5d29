package subtitle

import (
	"fmt"
	"strings"
)

// ASS colours are &HAABBGGRR.
var colours = map[string]string{
	"black": "&H00000000",
	"white": "&H00FFFFFF",
	"green": "&H0000FF00",
	"red":   "&H000000FF",
}

// Colours lists the accepted font colour names.
var Colours = []string{"black", "white", "green", "red"}

// Style holds burn-in options.
type Style struct {
	FontSize  int
	FontColor string
	FontName  string
}

// ForceStyle renders the style for ffmpeg's subtitles filter force_style.
func (s Style) ForceStyle() (string, error) {
	var parts []string
	if s.FontName != "" {
		parts = append(parts, "FontName="+s.FontName)
	}
	if s.FontSize > 0 {
		parts = append(parts, fmt.Sprintf("FontSize=%d", s.FontSize))
	}
	if s.FontColor != "" {
		c, ok := colours[strings.ToLower(s.FontColor)]
		if !ok {
			return "", fmt.Errorf("unsupported font colour %q (want one of %s)", s.FontColor, strings.Join(Colours, ", "))
		}
		parts = append(parts, "PrimaryColour="+c)
	}
	return strings.Join(parts, ","), nil
}
