package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/rcell/internal/playground"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	kindStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	destroyedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFB86C"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// printer renders output with or without styles.
type printer struct {
	w     io.Writer
	color bool
}

func (p printer) paint(s lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return s.Render(text)
}

func (p printer) title(text string) {
	fmt.Fprintln(p.w, p.paint(titleStyle, text))
}

func (p printer) trace(lines []string) {
	for _, l := range lines {
		if strings.HasPrefix(l, "destroyed ") {
			l = p.paint(destroyedStyle, l)
		}
		fmt.Fprintln(p.w, "  "+l)
	}
}

func formatSlot(s playground.SlotInfo) (name, kind, counts, value string) {
	name = s.Name
	kind = s.Kind.String()
	switch s.Kind {
	case playground.SlotRef, playground.SlotRefMut:
		counts = "-"
	default:
		counts = fmt.Sprintf("strong=%d weak=%d", s.Strong, s.Weak)
	}
	value = s.Value
	if value == "" {
		value = "(gone)"
	}
	if s.State != "" {
		value += " " + s.State
	}
	return name, kind, counts, value
}

func (p printer) slots(infos []playground.SlotInfo) {
	if len(infos) == 0 {
		fmt.Fprintln(p.w, p.paint(helpStyle, "  no live slots"))
		return
	}
	for _, s := range infos {
		name, kind, counts, value := formatSlot(s)
		fmt.Fprintf(p.w, "  %s %s %-20s %s\n",
			p.paint(nameStyle, fmt.Sprintf("%-8s", name)),
			p.paint(kindStyle, fmt.Sprintf("%-9s", kind)),
			counts, value)
	}
}

func (p printer) result(ok bool, text string) {
	if ok {
		fmt.Fprintln(p.w, p.paint(resultStyle, text))
		return
	}
	fmt.Fprintln(p.w, p.paint(errorStyle, text))
}
