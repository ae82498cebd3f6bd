package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"sosgibs/internal/app"
	"sosgibs/internal/domain"
)

// Phase represents the current state of the TUI
type Phase int

const (
	PhaseFetching Phase = iota
	PhaseDone
	PhaseError
)

// Messages for the TUI
type (
	FetchProgressMsg struct {
		Current int
		Total   int
		Outcome domain.FetchOutcome
	}
	RunDoneMsg struct {
		Report app.Report
	}
	ErrorMsg struct {
		Err error
	}
	tickMsg time.Time
)

// Config for the TUI
type Config struct {
	ShortName string
	OutputDir string
	Layers    []string
	Total     int
	// Cancel is invoked when the user quits before the run finishes.
	Cancel func()
}

const maxFailuresShown = 4

// Model is the main TUI model
type Model struct {
	config    Config
	Phase     Phase
	Report    app.Report
	spinner   spinner.Model
	progress  progress.Model
	current   int
	total     int
	succeeded int
	transient int
	permanent int
	failures  []domain.FetchOutcome
	lastDate  string
	Err       error
	Quitting  bool
	width     int
}

// NewModel creates a new TUI model
func NewModel(cfg Config) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	p := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(50),
		progress.WithoutPercentage(),
	)

	return Model{
		config:   cfg,
		Phase:    PhaseFetching,
		spinner:  s,
		progress: p,
		total:    cfg.Total,
		width:    80,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = min(msg.Width-20, 60)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.Quitting = true
			if m.Phase == PhaseFetching && m.config.Cancel != nil {
				m.config.Cancel()
			}
			return m, tea.Quit
		case "enter":
			if m.Phase == PhaseDone || m.Phase == PhaseError {
				return m, tea.Quit
			}
		}

	case FetchProgressMsg:
		m.current = msg.Current
		m.total = msg.Total
		m.lastDate = msg.Outcome.Job.Date.Format(domain.ISODate)
		switch msg.Outcome.Status {
		case domain.StatusSuccess:
			m.succeeded++
		case domain.StatusTransientFailure:
			m.transient++
			m.failures = append(m.failures, msg.Outcome)
		case domain.StatusPermanentFailure:
			m.permanent++
			m.failures = append(m.failures, msg.Outcome)
		}
		return m, nil

	case RunDoneMsg:
		m.Phase = PhaseDone
		m.Report = msg.Report
		return m, nil

	case ErrorMsg:
		m.Phase = PhaseError
		m.Err = msg.Err
		return m, nil

	case spinner.TickMsg:
		if m.Phase == PhaseFetching {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	case tickMsg:
		if m.Phase == PhaseFetching {
			var cmds []tea.Cmd
			if m.total > 0 {
				cmds = append(cmds, m.progress.SetPercent(float64(m.current)/float64(m.total)))
			}
			cmds = append(cmds, tickCmd())
			return m, tea.Batch(cmds...)
		}
	}

	return m, nil
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) View() string {
	if m.Quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	switch m.Phase {
	case PhaseFetching:
		b.WriteString(m.renderFetching())
	case PhaseDone:
		b.WriteString(m.renderDone())
	case PhaseError:
		b.WriteString(m.renderError())
	}

	b.WriteString("\n")
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m Model) renderHeader() string {
	title := titleStyle.Render(fmt.Sprintf("%s %s", iconGlobe, m.config.ShortName))
	subtitle := subtitleStyle.Render("Daily imagery bundle")

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		subtitle,
		"",
		dimStyle.Render(fmt.Sprintf("%s Output: %s", iconFolder, m.config.OutputDir)),
		dimStyle.Render(fmt.Sprintf("%s Layers: %s", iconLayers, strings.Join(m.config.Layers, ", "))),
	)
}

func (m Model) renderFetching() string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render("Fetching Images"))
	b.WriteString("\n\n")

	percent := 0.0
	if m.total > 0 {
		percent = float64(m.current) / float64(m.total)
	}
	b.WriteString(fmt.Sprintf("  %s Fetching...\n\n", m.spinner.View()))
	b.WriteString(fmt.Sprintf("  %s\n", m.progress.ViewAs(percent)))
	b.WriteString(fmt.Sprintf("  %s %s\n",
		countStyle.Render(fmt.Sprintf("%d/%d days", m.current, m.total)),
		dimStyle.Render(fmt.Sprintf("(%.0f%%)", percent*100)),
	))
	if m.lastDate != "" {
		b.WriteString(fmt.Sprintf("\n  %s %s\n", iconArrow, dateStyle.Render(m.lastDate)))
	}
	b.WriteString("\n")
	b.WriteString(m.renderCounts(m.succeeded, m.transient, m.permanent))
	b.WriteString(m.renderFailures(m.failures))
	return b.String()
}

func (m Model) renderDone() string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render("Bundle Complete"))
	b.WriteString("\n\n")

	s := m.Report.Summary
	if s.Failed() == 0 {
		b.WriteString(fmt.Sprintf("  %s %s\n\n", successStyle.Render(iconSuccess), successStyle.Render("All images fetched!")))
	} else {
		b.WriteString(fmt.Sprintf("  %s %s\n\n", warningStyle.Render(iconWarning), warningStyle.Render(fmt.Sprintf("%d of %d images failed", s.Failed(), s.Total))))
	}
	b.WriteString(m.renderCounts(s.Succeeded, s.Transient, s.Permanent))
	b.WriteString(m.renderFailures(failed(m.Report.Outcomes)))
	return b.String()
}

func (m Model) renderCounts(succeeded, transient, permanent int) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("  %s  %s\n", statLabelStyle.Render("Succeeded:"), successStyle.Render(fmt.Sprintf("%s %d", iconSuccess, succeeded))))
	b.WriteString(fmt.Sprintf("  %s  %s\n", statLabelStyle.Render("Transient failures:"), warningStyle.Render(fmt.Sprintf("%s %d", iconWarning, transient))))
	b.WriteString(fmt.Sprintf("  %s  %s\n", statLabelStyle.Render("Permanent failures:"), errorStyle.Render(fmt.Sprintf("%s %d", iconError, permanent))))
	return b.String()
}

func (m Model) renderFailures(failures []domain.FetchOutcome) string {
	if len(failures) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n")
	for i, o := range failures {
		if i >= maxFailuresShown {
			b.WriteString(fmt.Sprintf("  ... and %d more\n", len(failures)-maxFailuresShown))
			break
		}
		b.WriteString(fmt.Sprintf("  %s %s %s\n",
			warningStyle.Render(iconWarning),
			dateStyle.Render(o.Job.Date.Format(domain.ISODate)),
			dimStyle.Render(o.Status.String()),
		))
	}
	return b.String()
}

func (m Model) renderError() string {
	icon := errorStyle.Render(iconError)
	msg := errorStyle.Render(fmt.Sprintf("Error: %s", m.Err.Error()))

	return highlightBoxStyle.
		BorderForeground(errorColor).
		Render(fmt.Sprintf("%s %s", icon, msg))
}

func (m Model) renderHelp() string {
	var help string
	switch m.Phase {
	case PhaseFetching:
		help = "Press q to cancel"
	case PhaseDone:
		help = "Press Enter to exit"
	case PhaseError:
		help = "Press Enter or q to exit"
	}
	return helpStyle.Render(help)
}

func failed(outcomes []domain.FetchOutcome) []domain.FetchOutcome {
	var out []domain.FetchOutcome
	for _, o := range outcomes {
		if !o.Succeeded() {
			out = append(out, o)
		}
	}
	return out
}
