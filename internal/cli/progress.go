package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ProgressSpinner shows a spinner while a lookup is in flight. Scraping a
// carrier page can take several seconds, so the CLI needs visible signs of
// life on a terminal.
type ProgressSpinner struct {
	spinner  spinner.Model
	message  string
	noColor  bool
	complete chan bool
	style    lipgloss.Style
}

// NewProgressSpinner creates a new progress spinner
func NewProgressSpinner(message string, noColor bool) *ProgressSpinner {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))

	return &ProgressSpinner{
		spinner:  s,
		message:  message,
		noColor:  noColor,
		complete: make(chan bool),
		style:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// Start begins the spinner in a goroutine
func (p *ProgressSpinner) Start() {
	if p.noColor || os.Getenv("CI") != "" {
		// Plain message when animation would just pollute logs
		fmt.Printf("%s...\n", p.message)
		return
	}

	model := &spinnerModel{
		spinner:  p.spinner,
		message:  p.message,
		complete: p.complete,
		style:    p.style,
	}

	go func() {
		_, _ = tea.NewProgram(model).Run()
	}()

	// Give the spinner a moment to start
	time.Sleep(50 * time.Millisecond)
}

// Stop stops the spinner
func (p *ProgressSpinner) Stop() {
	if !p.noColor && os.Getenv("CI") == "" {
		close(p.complete)
		// Give it a moment to clean up
		time.Sleep(50 * time.Millisecond)
	}
}

type spinnerModel struct {
	spinner  spinner.Model
	message  string
	complete chan bool
	style    lipgloss.Style
}

func (m *spinnerModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.waitForComplete(),
	)
}

func (m *spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg.(type) {
	case tea.KeyMsg:
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case completeMsg:
		return m, tea.Quit
	}
	return m, nil
}

func (m *spinnerModel) View() string {
	return fmt.Sprintf("%s %s", m.spinner.View(), m.style.Render(m.message))
}

func (m *spinnerModel) waitForComplete() tea.Cmd {
	return func() tea.Msg {
		<-m.complete
		return completeMsg{}
	}
}

type completeMsg struct{}
