package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).MarginBottom(1)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(16)
	valueStyle = lipgloss.NewStyle().Bold(true)
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).MarginTop(1)
)

const recentMatches = 10

type model struct {
	r         *runner
	startTime time.Time
	stats     runStats
	recent    []string
	updates   <-chan MatchUpdate
	done      bool
	runErr    error
}

func initialModel(r *runner, updates <-chan MatchUpdate) model {
	return model{
		r:         r,
		startTime: time.Now(),
		updates:   updates,
	}
}

type TickMsg time.Time

// runDoneMsg is sent once the runner returns.
type runDoneMsg struct{ err error }

func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func waitForUpdate(updates <-chan MatchUpdate) tea.Cmd {
	return func() tea.Msg {
		return <-updates
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(waitForUpdate(m.updates), tickCmd())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case TickMsg:
		m.stats = m.r.stats()
		return m, tickCmd()
	case MatchUpdate:
		m.recent = append([]string{formatUpdate(msg)}, m.recent...)
		if len(m.recent) > recentMatches {
			m.recent = m.recent[:recentMatches]
		}
		return m, waitForUpdate(m.updates)
	case runDoneMsg:
		m.stats = m.r.stats()
		m.done = true
		m.runErr = msg.err
		return m, nil
	}
	return m, nil
}

func formatUpdate(u MatchUpdate) string {
	line := fmt.Sprintf("Worker %2d: %s", u.WorkerID, u.Result.MatchID)
	if u.Err != nil {
		return errStyle.Render(line + " FAILED: " + u.Err.Error())
	}
	winner := string(u.Result.Winner)
	if !u.Result.Finished {
		winner = "unfinished"
	} else if winner == "" {
		winner = "draw"
	}
	line += fmt.Sprintf(" winner=%s steps=%d rounds=%d", winner, u.Result.Steps, u.Result.Rounds)
	if u.Verified {
		line += okStyle.Render(" verified")
	}
	return line
}

func (m model) View() string {
	duration := time.Since(m.startTime)
	var matchesPerSec, movesPerSec float64
	if duration.Seconds() >= 1 {
		matchesPerSec = float64(m.stats.Matches) / duration.Seconds()
		movesPerSec = float64(m.stats.Moves) / duration.Seconds()
	}

	row := func(label, value string) string {
		return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), valueStyle.Render(value))
	}
	failures := fmt.Sprintf("%d", m.stats.Failures)
	if m.stats.Failures > 0 {
		failures = errStyle.Render(failures)
	}
	stats := lipgloss.JoinVertical(lipgloss.Left,
		row("Matches", fmt.Sprintf("%d", m.stats.Matches)),
		row("Finished", fmt.Sprintf("%d", m.stats.Finished)),
		row("Failures", failures),
		row("Skipped seeds", fmt.Sprintf("%d", m.stats.Skipped)),
		row("Moves", fmt.Sprintf("%d", m.stats.Moves)),
		row("Flushes", fmt.Sprintf("%d", m.stats.Flushes)),
		row("Duration", duration.Round(time.Second).String()),
		row("Matches/Sec", fmt.Sprintf("%.2f", matchesPerSec)),
		row("Moves/Sec", fmt.Sprintf("%.2f", movesPerSec)),
	)

	recent := "Recent Matches:\n" + strings.Join(m.recent, "\n")

	status := "Press q to quit."
	if m.done {
		status = okStyle.Render("Run complete.") + " Press q to exit."
		if m.runErr != nil {
			status = errStyle.Render("Run stopped: "+m.runErr.Error()) + " Press q to exit."
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("tactics soak"),
		boxStyle.Render(stats),
		"",
		recent,
		helpStyle.Render(status),
	) + "\n"
}
