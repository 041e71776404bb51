package emit

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Resolution is the decision for a file that already exists.
type Resolution int

const (
	Skip Resolution = iota
	Overwrite
	ShowDiff
	Cancel
)

var (
	conflictWarnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("yellow")).Bold(true)
	conflictTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("white")).Bold(true)
	conflictSelectStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("cyan")).Bold(true)
	conflictMutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Strategy decides what to do with an existing file.
type Strategy interface {
	Resolve(path string, existing, newer []byte) (Resolution, error)
}

// Resolver picks a strategy from CLI flags and applies it per conflict.
type Resolver struct {
	strategy Strategy
}

// NewResolver validates flag combinations and selects a strategy.
// Without flags the strategy is interactive on a TTY and skip otherwise.
func NewResolver(force, skip, diff bool) (*Resolver, error) {
	if force && (skip || diff) {
		return nil, fmt.Errorf("--force cannot be combined with --skip or --diff")
	}

	var s Strategy
	switch {
	case force:
		s = forceStrategy{}
	case skip:
		s = skipStrategy{}
	case diff:
		s = diffStrategy{}
	case term.IsTerminal(int(os.Stdin.Fd())):
		s = interactiveStrategy{}
	default:
		s = skipStrategy{}
	}
	return &Resolver{strategy: s}, nil
}

// ResolveConflict returns the decision for path, prompting if the strategy
// is interactive.
func (r *Resolver) ResolveConflict(path string, existing, newer []byte) (Resolution, error) {
	return r.strategy.Resolve(path, existing, newer)
}

type forceStrategy struct{}

func (forceStrategy) Resolve(string, []byte, []byte) (Resolution, error) {
	return Overwrite, nil
}

type skipStrategy struct{}

func (skipStrategy) Resolve(string, []byte, []byte) (Resolution, error) {
	return Skip, nil
}

// diffStrategy shows the diff, then prompts for a decision.
type diffStrategy struct{}

func (diffStrategy) Resolve(path string, existing, newer []byte) (Resolution, error) {
	if err := showDiff(path, existing, newer); err != nil {
		return Cancel, err
	}
	return interactiveStrategy{}.Resolve(path, existing, newer)
}

// interactiveStrategy shows a keyboard-navigable menu.
type interactiveStrategy struct{}

func (interactiveStrategy) Resolve(path string, existing, newer []byte) (Resolution, error) {
	for {
		model := newConflictMenu(path)
		p := tea.NewProgram(model)
		final, err := p.Run()
		if err != nil {
			return Cancel, fmt.Errorf("failed to show conflict menu: %w", err)
		}

		m := final.(conflictMenu)
		if m.selected == nil {
			return Cancel, nil
		}
		if *m.selected != ShowDiff {
			return *m.selected, nil
		}
		if err := showDiff(path, existing, newer); err != nil {
			return Cancel, err
		}
	}
}

// showDiff prints small diffs inline and pages large ones.
func showDiff(path string, existing, newer []byte) error {
	diff := Diff(path, existing, newer)
	if strings.Count(diff, "\n") <= 20 {
		fmt.Println(diff)
		return nil
	}

	p := tea.NewProgram(newDiffPager(path, diff), tea.WithAltScreen())
	_, err := p.Run()
	if err != nil {
		return fmt.Errorf("failed to show diff: %w", err)
	}
	return nil
}

type conflictMenu struct {
	path     string
	choices  []string
	cursor   int
	selected *Resolution
}

func newConflictMenu(path string) conflictMenu {
	return conflictMenu{
		path: path,
		choices: []string{
			"Show diff and decide",
			"Skip (keep existing file)",
			"Overwrite (replace with customized template)",
			"Cancel",
		},
	}
}

func (m conflictMenu) Init() tea.Cmd { return nil }

func (m conflictMenu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "ctrl+c", "q", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.choices)-1 {
			m.cursor++
		}
	case "enter":
		resolution := [...]Resolution{ShowDiff, Skip, Overwrite, Cancel}[m.cursor]
		m.selected = &resolution
		return m, tea.Quit
	}
	return m, nil
}

func (m conflictMenu) View() string {
	var b strings.Builder
	b.WriteString(conflictWarnStyle.Render("File exists: ") + conflictTitleStyle.Render(m.path) + "\n\n")
	b.WriteString(conflictMutedStyle.Render("  [↑/↓] navigate  [enter] select  [q] cancel") + "\n\n")
	for i, choice := range m.choices {
		if i == m.cursor {
			b.WriteString("  " + conflictSelectStyle.Render("> "+choice) + "\n")
		} else {
			b.WriteString("    " + choice + "\n")
		}
	}
	return b.String()
}

type diffPager struct {
	path     string
	diff     string
	viewport viewport.Model
	ready    bool
}

func newDiffPager(path, diff string) diffPager {
	return diffPager{path: path, diff: diff}
}

func (m diffPager) Init() tea.Cmd { return nil }

func (m diffPager) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-2)
			m.viewport.SetContent(m.diff)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 2
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m diffPager) View() string {
	if !m.ready {
		return "loading diff..."
	}
	header := conflictMutedStyle.Render("diff: " + m.path)
	footer := conflictMutedStyle.Render("[↑/↓] scroll  [q] close")
	return header + "\n" + m.viewport.View() + "\n" + footer
}
