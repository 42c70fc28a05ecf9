// Package tui is the interactive front end of dmf2midi: pick a conversion,
// pick a file, read the outcome.
package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/james-see/dmf2midi/pkg/converter"
	"github.com/james-see/dmf2midi/pkg/dmf"
)

// palette
var (
	crimson  = lipgloss.Color("#D7263D")
	gold     = lipgloss.Color("#F4D35E")
	bone     = lipgloss.Color("#E8E1D9")
	charcoal = lipgloss.Color("#2B2B2B")
	amber    = lipgloss.Color("#FF9F1C")
	dim      = lipgloss.Color("#666666")
)

type styles struct {
	banner, heading, item, cursor, hint, fail, warn, ok, frame lipgloss.Style
}

func newStyles() styles {
	return styles{
		banner:  lipgloss.NewStyle().Foreground(crimson),
		heading: lipgloss.NewStyle().Bold(true).Foreground(gold).Background(charcoal).Padding(0, 2).MarginBottom(1),
		item:    lipgloss.NewStyle().Foreground(bone).PaddingLeft(2),
		cursor:  lipgloss.NewStyle().Foreground(crimson).Bold(true).PaddingLeft(2),
		hint:    lipgloss.NewStyle().Foreground(gold).PaddingLeft(4),
		fail:    lipgloss.NewStyle().Foreground(crimson).Bold(true),
		warn:    lipgloss.NewStyle().Foreground(amber),
		ok:      lipgloss.NewStyle().Foreground(gold).Bold(true),
		frame:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(crimson).Padding(1, 2),
	}
}

type keyMap struct {
	Up, Down, Choose, Back, Quit key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Choose: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "choose")),
		Back:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// screen is the page currently shown
type screen int

const (
	screenMenu screen = iota
	screenPick
	screenBusy
	screenDone
)

// job is one entry of the conversion menu. A job without extensions quits.
type job struct {
	label string
	about string
	from  converter.Format
	to    converter.Format
	exts  []string
}

var jobs = []job{
	{"DMF → MIDI", "Decode a DMF sequence into a Standard MIDI File", converter.FormatDMF, converter.FormatMIDI, []string{".dmf", ".DMF", ".bin"}},
	{"MIDI → MML", "Write a MIDI file as MML text", converter.FormatMIDI, converter.FormatMML, []string{".mid", ".midi"}},
	{"Quit", "Leave dmf2midi", "", "", nil},
}

// outcome is what a finished conversion reports back
type outcome struct {
	input    string
	output   string
	warnings []string
	err      error
}

// Model is the bubbletea model of the TUI
type Model struct {
	conv    *converter.Converter
	keys    keyMap
	help    help.Model
	st      styles
	picker  filepicker.Model
	spin    spinner.Model
	screen  screen
	choice  int
	current job
	input   string
	result  outcome
}

// New builds a model that converts with conv. A nil conv uses the default
// engine and options.
func New(conv *converter.Converter) Model {
	if conv == nil {
		conv = converter.New("", dmf.DefaultOptions())
	}

	fp := filepicker.New()
	fp.CurrentDirectory, _ = os.Getwd()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = lipgloss.NewStyle().Foreground(crimson)

	return Model{
		conv:   conv,
		keys:   newKeyMap(),
		help:   help.New(),
		st:     newStyles(),
		picker: fp,
		spin:   sp,
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return m.spin.Tick
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		m.picker.Height = msg.Height - 10
	case outcome:
		m.result = msg
		m.screen = screenDone
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	switch m.screen {
	case screenMenu:
		return m.onMenu(msg)
	case screenPick:
		return m.onPick(msg)
	case screenDone:
		return m.onDone(msg)
	}
	return m, nil
}

func (m Model) onMenu(msg tea.Msg) (tea.Model, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(k, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(k, m.keys.Up):
		m.choice = max(m.choice-1, 0)
	case key.Matches(k, m.keys.Down):
		m.choice = min(m.choice+1, len(jobs)-1)
	case key.Matches(k, m.keys.Choose):
		m.current = jobs[m.choice]
		if m.current.exts == nil {
			return m, tea.Quit
		}
		m.picker.AllowedTypes = m.current.exts
		m.screen = screenPick
		return m, m.picker.Init()
	}
	return m, nil
}

// onPick forwards everything except back/quit to the file picker, which
// needs its own messages to read directories.
func (m Model) onPick(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(k, m.keys.Back):
			m.screen = screenMenu
			return m, nil
		case key.Matches(k, m.keys.Quit):
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	if picked, path := m.picker.DidSelectFile(msg); picked {
		m.input = path
		m.screen = screenBusy
		return m, tea.Batch(m.spin.Tick, convert(m.conv, path))
	}
	return m, cmd
}

func (m Model) onDone(msg tea.Msg) (tea.Model, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(k, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(k, m.keys.Choose), key.Matches(k, m.keys.Back):
		m.screen = screenMenu
		m.input = ""
		m.result = outcome{}
	}
	return m, nil
}

// convert runs one file conversion off the UI loop.
func convert(conv *converter.Converter, input string) tea.Cmd {
	return func() tea.Msg {
		out := outcome{input: input}
		res, err := conv.ConvertFile(input, "")
		switch {
		case err != nil:
			out.err = err
		case !res.Written:
			out.warnings = res.Warnings
			out.err = fmt.Errorf("no output written for %s", filepath.Base(input))
		default:
			out.output = res.Filename
			out.warnings = res.Warnings
		}
		return out
	}
}

// View implements tea.Model
func (m Model) View() string {
	var body string
	switch m.screen {
	case screenMenu:
		body = m.menuView()
	case screenPick:
		body = m.pickView()
	case screenBusy:
		body = m.busyView()
	case screenDone:
		body = m.doneView()
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.st.banner.Render(banner),
		body,
		m.help.ShortHelpView(m.bindings()),
	)
}

// bindings lists the keys that do something on the current screen
func (m Model) bindings() []key.Binding {
	switch m.screen {
	case screenMenu:
		return []key.Binding{m.keys.Up, m.keys.Down, m.keys.Choose, m.keys.Quit}
	case screenPick:
		return []key.Binding{m.keys.Choose, m.keys.Back, m.keys.Quit}
	case screenDone:
		return []key.Binding{m.keys.Choose, m.keys.Quit}
	}
	return nil
}

func (m Model) menuView() string {
	lines := []string{m.st.heading.Render(" CONVERSION ")}
	for i, j := range jobs {
		if i != m.choice {
			lines = append(lines, m.st.item.Render("  "+j.label))
			continue
		}
		lines = append(lines, m.st.cursor.Render("▸ "+j.label), m.st.hint.Render(j.about))
	}
	return m.st.frame.Render(strings.Join(lines, "\n"))
}

func (m Model) pickView() string {
	title := fmt.Sprintf(" OPEN %s ", strings.ToUpper(string(m.current.from)))
	return lipgloss.JoinVertical(lipgloss.Left, m.st.heading.Render(title), m.picker.View())
}

func (m Model) busyView() string {
	return m.st.frame.Render(fmt.Sprintf("%s %s\n%s",
		m.spin.View(),
		filepath.Base(m.input),
		m.st.hint.Render(fmt.Sprintf("%s → %s", m.current.from, m.current.to)),
	))
}

func (m Model) doneView() string {
	var b strings.Builder
	if err := m.result.err; err != nil {
		b.WriteString(m.st.heading.Render(" FAILED ") + "\n")
		text := err.Error()
		if stage := dmf.Stage(err); stage != "" {
			text = "[" + stage + "] " + text
		}
		b.WriteString(m.st.fail.Render("✗ " + text))
	} else {
		b.WriteString(m.st.heading.Render(" DONE ") + "\n")
		fmt.Fprintf(&b, "%s\n%s → %s", m.st.ok.Render("✓ converted"),
			filepath.Base(m.result.input), filepath.Base(m.result.output))
	}
	for _, w := range m.result.warnings {
		b.WriteString("\n" + m.st.warn.Render("! "+w))
	}
	return m.st.frame.Render(b.String())
}

const banner = `
   ____  __  __ _____ ____  __  __ ___ ____ ___
  |  _ \|  \/  |  ___|___ \|  \/  |_ _|  _ \_ _|
  | | | | |\/| | |_    __) | |\/| || || | | | |
  | |_| | |  | |  _|  / __/| |  | || || |_| | |
  |____/|_|  |_|_|   |_____|_|  |_|___|____/___|
`

// Run starts the TUI and blocks until the user quits
func Run(conv *converter.Converter) error {
	_, err := tea.NewProgram(New(conv), tea.WithAltScreen()).Run()
	return err
}
