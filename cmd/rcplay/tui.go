package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/wippyai/rcell/internal/playground"
)

const traceLines = 12

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "tui",
		Short: "Interactive playground",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isTerminal(os.Stdin) || !isTerminal(os.Stdout) {
				return fmt.Errorf("tui needs an interactive terminal; use run or scenario instead")
			}
			m := newInteractiveModel(playground.New(playground.WithLogger(log)))
			defer m.machine.Close()
			_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
			return err
		},
	})
}

type interactiveModel struct {
	err     error
	machine *playground.Machine
	input   textinput.Model
	history []string
	histIdx int
}

func newInteractiveModel(m *playground.Machine) *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "new a 5"
	ti.Prompt = "> "
	ti.Width = 50
	ti.Focus()
	return &interactiveModel{machine: m, input: ti}
}

func (m *interactiveModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "enter":
			m.exec(m.input.Value())
			m.input.SetValue("")
			return m, nil

		case "up":
			if m.histIdx > 0 {
				m.histIdx--
				m.input.SetValue(m.history[m.histIdx])
				m.input.CursorEnd()
			}
			return m, nil

		case "down":
			if m.histIdx < len(m.history)-1 {
				m.histIdx++
				m.input.SetValue(m.history[m.histIdx])
				m.input.CursorEnd()
			} else {
				m.histIdx = len(m.history)
				m.input.SetValue("")
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *interactiveModel) exec(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	m.history = append(m.history, line)
	m.histIdx = len(m.history)

	st, err := playground.ParseCommand(line)
	if err != nil {
		m.err = err
		return
	}
	m.err = m.machine.Exec(st)
}

func (m *interactiveModel) View() string {
	p := printer{color: true}
	var b strings.Builder

	b.WriteString(titleStyle.Render("rcplay"))
	b.WriteString("\n\n")

	infos := m.machine.Slots()
	if len(infos) == 0 {
		b.WriteString(helpStyle.Render("no live slots"))
		b.WriteString("\n")
	}
	for _, s := range infos {
		name, kind, counts, value := formatSlot(s)
		fmt.Fprintf(&b, "%s %s %-20s %s\n",
			p.paint(nameStyle, fmt.Sprintf("%-8s", name)),
			p.paint(kindStyle, fmt.Sprintf("%-9s", kind)),
			counts, value)
	}
	b.WriteString("\n")

	trace := m.machine.Trace()
	if len(trace) > traceLines {
		trace = trace[len(trace)-traceLines:]
	}
	for _, l := range trace {
		if strings.HasPrefix(l, "destroyed ") {
			l = destroyedStyle.Render(l)
		}
		b.WriteString(l)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	}
	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("new NAME [VALUE] [rc|arc] • clone|downgrade|upgrade|borrow|borrow_mut NAME FROM • set|get_mut NAME VALUE • release NAME"))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("↑/↓ history • enter run • esc quit"))
	return b.String()
}
