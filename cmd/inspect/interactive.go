package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bindat/cstruct"
)

var (
	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateSelectType modelState = iota
	stateShowLayout
	stateInputOffset
	stateShowDecoded
)

type inspectModel struct {
	err      error
	reg      *cstruct.Registry
	names    []string
	data     []byte
	dataPath string
	offset   textinput.Model
	decoded  string
	selected int
	state    modelState
}

func newInspectModel(reg *cstruct.Registry, dataPath string) *inspectModel {
	ti := textinput.New()
	ti.Placeholder = "0"
	ti.Prompt = "offset: "
	ti.Width = 20
	return &inspectModel{
		reg:      reg,
		names:    reg.Names(),
		dataPath: dataPath,
		offset:   ti,
		state:    stateSelectType,
	}
}

type dataLoadedMsg struct {
	err  error
	data []byte
}

type decodedMsg struct {
	err    error
	result string
}

func (m *inspectModel) Init() tea.Cmd {
	if m.dataPath == "" {
		return nil
	}
	return m.loadData
}

func (m *inspectModel) loadData() tea.Msg {
	data, err := os.ReadFile(m.dataPath)
	return dataLoadedMsg{err: err, data: data}
}

func (m *inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.state == stateInputOffset && msg.String() == "q" {
				break
			}
			return m, tea.Quit

		case "up", "k":
			if m.state == stateSelectType && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectType && m.selected < len(m.names)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectType:
				m.state = stateShowLayout
			case stateInputOffset:
				return m, m.decode
			case stateShowDecoded:
				m.state = stateShowLayout
				m.decoded = ""
				m.err = nil
			}

		case "d":
			if m.state == stateShowLayout && m.data != nil {
				m.offset.SetValue("")
				m.offset.Focus()
				m.state = stateInputOffset
				return m, nil
			}

		case "esc":
			switch m.state {
			case stateShowLayout:
				m.state = stateSelectType
			case stateInputOffset:
				m.offset.Blur()
				m.state = stateShowLayout
			case stateShowDecoded:
				m.state = stateShowLayout
				m.decoded = ""
				m.err = nil
			}
		}

	case dataLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.data = msg.data

	case decodedMsg:
		m.offset.Blur()
		m.decoded = msg.result
		m.err = msg.err
		m.state = stateShowDecoded
	}

	if m.state == stateInputOffset {
		var cmd tea.Cmd
		m.offset, cmd = m.offset.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *inspectModel) decode() tea.Msg {
	off := int64(0)
	if v := strings.TrimSpace(m.offset.Value()); v != "" {
		parsed, err := strconv.ParseInt(v, 0, 64)
		if err != nil {
			return decodedMsg{err: fmt.Errorf("bad offset %q: %w", v, err)}
		}
		off = parsed
	}
	if off < 0 || off > int64(len(m.data)) {
		return decodedMsg{err: fmt.Errorf("offset %d outside data (%d bytes)", off, len(m.data))}
	}

	t, ok := m.reg.Lookup(m.names[m.selected])
	if !ok {
		return decodedMsg{err: fmt.Errorf("type %s not registered", m.names[m.selected])}
	}

	inst, err := t.DecodeBytes(m.data[off:])
	if err != nil {
		return decodedMsg{err: err}
	}
	out, err := json.MarshalIndent(inst.Map(), "", "  ")
	if err != nil {
		return decodedMsg{err: err}
	}
	return decodedMsg{result: string(out)}
}

func (m *inspectModel) View() string {
	if m.err != nil && m.state != stateShowDecoded {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	var b strings.Builder

	b.WriteString(headerStyle.Render("Layout Inspector"))
	if m.dataPath != "" {
		b.WriteString(" ")
		b.WriteString(m.dataPath)
	}
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectType:
		b.WriteString("Select a type:\n\n")
		for i, name := range m.names {
			cursor := "  "
			if i == m.selected {
				cursor = "> "
				b.WriteString(selectedStyle.Render(cursor + name))
			} else {
				b.WriteString(cursor + name)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter layout • q quit"))

	case stateShowLayout:
		t, ok := m.reg.Lookup(m.names[m.selected])
		if !ok {
			b.WriteString(errorStyle.Render("type not registered"))
			break
		}
		b.WriteString(renderLayout(t))
		b.WriteString("\n\n")
		help := "esc back • q quit"
		if m.data != nil {
			help = "d decode • " + help
		}
		b.WriteString(helpStyle.Render(help))

	case stateInputOffset:
		b.WriteString(fmt.Sprintf("Decode %s at:\n\n", nameStyle.Render(m.names[m.selected])))
		b.WriteString(m.offset.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter decode • esc back"))

	case stateShowDecoded:
		b.WriteString(fmt.Sprintf("Decoded %s:\n\n", nameStyle.Render(m.names[m.selected])))
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.decoded))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter back • q quit"))
	}

	return b.String()
}

func runInteractive(reg *cstruct.Registry, dataPath string) error {
	p := tea.NewProgram(newInspectModel(reg, dataPath), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
