package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/guiyumin/vclip/internal/core/llm"
	"github.com/mattn/go-runewidth"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	defaultStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

// pad right-pads s to width display cells. CJK names count double.
func pad(s string, width int) string {
	return runewidth.FillRight(s, width)
}

func printModels(w io.Writer, models []llm.Model, def string) {
	idWidth, provWidth := runewidth.StringWidth("MODEL"), runewidth.StringWidth("PROVIDER")
	for _, m := range models {
		idWidth = max(idWidth, runewidth.StringWidth(m.ID))
		provWidth = max(provWidth, runewidth.StringWidth(m.Provider))
	}

	fmt.Fprintln(w, headerStyle.Render(pad("MODEL", idWidth)+"  "+pad("PROVIDER", provWidth)+"  NAME"))
	for _, m := range models {
		line := pad(m.ID, idWidth) + "  " + pad(m.Provider, provWidth) + "  " + m.Name
		if m.ID == def {
			line = defaultStyle.Render(line + " *")
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "\n%s\n", hintStyle.Render("Any model starting with one of: "+joinPrefixes()))
}

func joinPrefixes() string {
	out := ""
	for i, p := range llm.SupportedPrefixes {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}
