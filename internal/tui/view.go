package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles, populated by applyTheme on startup and on theme toggle.
var (
	titleStyle          lipgloss.Style
	borderStyle         lipgloss.Style
	labelStyle          lipgloss.Style
	pressedKeyStyle     lipgloss.Style
	quitStyle           lipgloss.Style
	idleBadge           lipgloss.Style
	pendingBadge        lipgloss.Style
	rolloverBadge       lipgloss.Style
	bodyStyle           lipgloss.Style
	layerActiveStyle    lipgloss.Style
	layerInactiveStyle  lipgloss.Style
	reportByteStyle     lipgloss.Style
	logTitleStyle       lipgloss.Style
	logTimeStyle        lipgloss.Style
	logCategoryStyle    lipgloss.Style
	logMsgStyle         lipgloss.Style
	logSepStyle         lipgloss.Style
)

func init() {
	applyTheme(LoadTheme("synthwave"))
}

// View renders the model.
func (m Model) View() string {
	if m.width == 0 {
		return "initializing...\n"
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("smart-keymap simulator"))
	b.WriteString("\n")

	b.WriteString(m.renderStatusLine())
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("pressed keys"))
	b.WriteString("\n")
	b.WriteString(m.renderPressedKeys())
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("active layers"))
	b.WriteString("\n")
	b.WriteString(m.renderLayers())
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("hid report"))
	b.WriteString("\n")
	b.WriteString(m.renderReport())
	b.WriteString("\n\n")

	if m.debug {
		b.WriteString(m.renderLog())
		b.WriteString("\n")
	}

	b.WriteString(quitStyle.Render("q: quit  t: cycle theme  d: toggle debug log"))

	return borderStyle.Render(b.String())
}

func (m Model) renderStatusLine() string {
	status := idleBadge.Render(fmt.Sprintf(" tick %d ", m.lastTick))
	if m.pendingCount > 0 {
		status += " " + pendingBadge.Render(fmt.Sprintf(" %d pending ", m.pendingCount))
	}
	if m.rollover {
		status += " " + rolloverBadge.Render(" rollover ")
	}
	return status
}

func (m Model) renderPressedKeys() string {
	if len(m.pressedKeys) == 0 {
		return bodyStyle.Render("(none)")
	}
	names := make([]string, len(m.pressedKeys))
	for i, k := range m.pressedKeys {
		names[i] = k
	}
	return pressedKeyStyle.Render(strings.Join(names, "  "))
}

func (m Model) renderLayers() string {
	if len(m.layerNames) == 0 {
		return bodyStyle.Render("(no layers configured)")
	}
	var parts []string
	for i, name := range m.layerNames {
		active := false
		for _, a := range m.activeLayers {
			if a == i {
				active = true
				break
			}
		}
		if active {
			parts = append(parts, layerActiveStyle.Render("["+name+"]"))
		} else {
			parts = append(parts, layerInactiveStyle.Render(name))
		}
	}
	return strings.Join(parts, " ")
}

func (m Model) renderReport() string {
	kb := reportByteStyle.Render(fmt.Sprintf("kbd  % x", m.report.Keyboard))
	consumer := reportByteStyle.Render(fmt.Sprintf("cons % x", m.report.Consumer))
	custom := reportByteStyle.Render(fmt.Sprintf("cust % x", m.report.Custom))
	mouse := reportByteStyle.Render(fmt.Sprintf("mouse btn=%02x x=%d y=%d vs=%d hs=%d",
		m.report.Mouse.Buttons, m.report.Mouse.X, m.report.Mouse.Y,
		m.report.Mouse.VerticalScroll, m.report.Mouse.HorizontalScroll))
	return strings.Join([]string{kb, consumer, custom, mouse}, "\n")
}

func (m Model) renderLog() string {
	var b strings.Builder
	b.WriteString(logTitleStyle.Render("log"))
	b.WriteString("\n")
	b.WriteString(logSepStyle.Render(strings.Repeat("-", 40)))
	b.WriteString("\n")
	start := 0
	if len(m.logEntries) > maxLogLines {
		start = len(m.logEntries) - maxLogLines
	}
	for _, e := range m.logEntries[start:] {
		line := logTimeStyle.Render(e.Time) + " " +
			logCategoryStyle.Render("["+e.Category+"]") + " " +
			logMsgStyle.Render(e.Message)
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}
