package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/unowned-ai/nutriscan/pkg/guide"
)

// UI styles and layout settings
// Color palette "Blue Moon" from https://gogh-co.github.io/Gogh/
const (
	colorGray     = "#353b52"
	colorWhite    = "#ffffff"
	colorGreen    = "#acfab4"
	colorGreenDim = "#b4c4b4"
	colorYellow   = "#ffd580"
	colorRed      = "#e61f44"
	colorRedDim   = "#d06178"
	colorPurple   = "#b9a3eb"
	colorBlue     = "#89ddff"

	marqueeTickDuration = time.Duration(time.Second / 20)
	marqueeGap          = 4
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.Color(colorBlue)).
			Background(lipgloss.Color(colorGray)).
			Padding(0, 2).Align(lipgloss.Center)
	subtitleStyle = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.Color(colorBlue))
	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorGray)).
			Background(lipgloss.Color(colorGreen))
	inactiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(colorWhite))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(colorBlue))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(colorRed))
	footerStyle   = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorGray))
)

var tierColors = map[guide.TierName]string{
	guide.TierTop: colorGreen,
	guide.TierA:   colorGreen,
	guide.TierB:   colorGreenDim,
	guide.TierC:   colorYellow,
	guide.TierD:   colorRedDim,
	guide.TierE:   colorRed,
}

func tierStyle(t guide.TierName) lipgloss.Style {
	c, ok := tierColors[t]
	if !ok {
		c = colorGray
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(c))
}

var bandColors = map[string]string{
	"excellent": colorGreen,
	"good":      colorGreenDim,
	"fair":      colorYellow,
	"poor":      colorRedDim,
	"bad":       colorRed,
}

func bandStyle(band string) lipgloss.Style {
	c, ok := bandColors[band]
	if !ok {
		c = colorGray
	}
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(c))
}

// TextStatusColorize colors text by status: 1 green, 2 red, anything else
// gray.
func TextStatusColorize(text string, status int) string {
	switch status {
	case 1:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(colorGreenDim)).Render(text)
	case 2:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(colorRedDim)).Render(text)
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(colorGray)).Render(text)
	}
}

// Generates pointer symbol when line in focus
func generateLinePointer(isPoint bool, length int) string {
	if isPoint {
		return ">" + strings.Repeat(" ", length-1)
	}
	return strings.Repeat(" ", length)
}

// marqueeText scrolls text that does not fit in width.
func (m model) marqueeText(text string, width int) string {
	if len(text) <= width || width <= 0 {
		return text
	}
	padded := text + strings.Repeat(" ", marqueeGap) + text
	offset := m.marqueeOffset % (len(text) + marqueeGap)
	return padded[offset : offset+width]
}

// truncate shortens text to width with two trailing dots.
func truncate(text string, width int) string {
	if len(text) <= width || width <= 3 {
		return text
	}
	return text[:width-2] + ".."
}

// columnWidths splits the screen 30/30/40, giving the focused list a bit more
// room.
func (m model) columnWidths() (int, int, int) {
	var left, middle int
	switch m.columnFocus {
	case focusGuide:
		left = (m.width * 35) / 100
		middle = (m.width * 25) / 100
	default:
		left = (m.width * 25) / 100
		middle = (m.width * 35) / 100
	}
	return left, middle, m.width - left - middle
}
