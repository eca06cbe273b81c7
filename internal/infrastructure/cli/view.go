package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/felixgeelhaar/timelens/pkg/application"
	"github.com/felixgeelhaar/timelens/pkg/client"
	"github.com/felixgeelhaar/timelens/pkg/domain/report"
	"github.com/spf13/cobra"
)

func newViewCmd(global *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Interactive report with the dataset toggle and project filter",
		Long: `Interactive report of an analysis.

Keys:
  m        switch between the selected period and all CLM data
  space    include or exclude the selected project
  a / n    include all / exclude all projects
  r        reset the project filter
  tab      switch between the comparison and distribution panes
  enter    resolve the Jira search of the selected row
  esc      dismiss the error banner
  q        quit`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd, global)
			if err != nil {
				return err
			}
			sess, err := e.openSession(cmd.Context(), sinks{})
			if err != nil {
				return err
			}
			if err := sess.Controller.Redraw(); err != nil {
				return err
			}
			if os.Getenv("TIMELENS_SKIP_TUI") == "true" {
				return nil
			}
			p := tea.NewProgram(newViewModel(cmd.Context(), sess), tea.WithContext(cmd.Context()))
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("view run failed: %w", err)
			}
			return nil
		},
	}
}

// Styles
var baseStyle = lipgloss.NewStyle().
	BorderStyle(lipgloss.NormalBorder()).
	BorderForeground(lipgloss.Color("240"))

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#FAFAFA")).
	Background(lipgloss.Color("#7D56F4")).
	PaddingLeft(1).
	PaddingRight(1)

var (
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA")).Background(lipgloss.Color("196")).PaddingLeft(1).PaddingRight(1)
	linkStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	faintStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

type pane int

const (
	paneComparison pane = iota
	paneDistribution
)

type switchDoneMsg struct{ err error }

type linkMsg struct {
	link *client.Link
	err  error
}

type boardChangedMsg struct{}

type viewModel struct {
	ctx       context.Context
	sess      *application.Session
	projects  table.Model
	segments  table.Model
	spinner   spinner.Model
	focus     pane
	switching bool
	err       error
	link      *client.Link
}

func newViewModel(ctx context.Context, sess *application.Session) viewModel {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240"))
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229"))

	projects := table.New(
		table.WithColumns([]table.Column{
			{Title: "", Width: 3},
			{Title: "Project", Width: 14},
			{Title: "Estimate (h)", Width: 13},
			{Title: "Spent (h)", Width: 13},
		}),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	projects.SetStyles(s)

	segments := table.New(
		table.WithColumns([]table.Column{
			{Title: "Project", Width: 14},
			{Title: "Issues", Width: 8},
			{Title: "Share", Width: 6},
		}),
		table.WithHeight(12),
	)
	segments.SetStyles(s)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := viewModel{
		ctx:      ctx,
		sess:     sess,
		projects: projects,
		segments: segments,
		spinner:  sp,
	}
	m.refresh()
	return m
}

func waitForBoard(b *application.Board) tea.Cmd {
	return func() tea.Msg {
		<-b.Changed()
		return boardChangedMsg{}
	}
}

func (m viewModel) Init() tea.Cmd { return waitForBoard(m.sess.Board) }

// refresh rebuilds both tables from the active dataset and the board.
func (m *viewModel) refresh() {
	ds := m.sess.Controller.Active()
	rows := make([]table.Row, 0, len(ds.Order))
	for _, id := range m.sess.Comparison.Projects() {
		mark := "[x]"
		if m.sess.Comparison.IsExcluded(id) {
			mark = "[ ]"
		}
		rows = append(rows, table.Row{
			mark,
			string(id),
			report.FormatHours(ds.Estimates[id]),
			report.FormatHours(ds.TimeSpent[id]),
		})
	}
	m.projects.SetRows(rows)

	dist := m.sess.Board.State().Distribution
	segs := make([]table.Row, 0, len(dist.Categories))
	for i, c := range dist.Categories {
		segs = append(segs, table.Row{c.Label, fmt.Sprint(c.Count), fmt.Sprintf("%d%%", dist.Share(i))})
	}
	m.segments.SetRows(segs)
}

func (m viewModel) selectedProject() (report.ProjectID, bool) {
	row := m.projects.SelectedRow()
	if row == nil {
		return "", false
	}
	return report.ProjectID(row[1]), true
}

func (m viewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case switchDoneMsg:
		m.switching = false
		m.err = msg.err
		m.link = nil
		m.refresh()
		return m, nil

	case linkMsg:
		m.err = msg.err
		m.link = msg.link
		return m, nil

	case boardChangedMsg:
		m.refresh()
		return m, waitForBoard(m.sess.Board)

	case spinner.TickMsg:
		if !m.switching {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m viewModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cmp := m.sess.Comparison
	var err error

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.err = nil
		m.link = nil
		return m, nil
	case "tab":
		if m.focus == paneComparison {
			m.focus = paneDistribution
			m.projects.Blur()
			m.segments.Focus()
		} else {
			m.focus = paneComparison
			m.segments.Blur()
			m.projects.Focus()
		}
		return m, nil
	case "m":
		if m.switching || !m.sess.CanToggle() {
			return m, nil
		}
		m.switching = true
		m.err = nil
		ctx, ctrl := m.ctx, m.sess.Controller
		return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
			return switchDoneMsg{err: ctrl.Toggle(ctx)}
		})
	case "enter":
		return m, m.resolveLink()
	case " ", "a", "n", "r":
		if m.focus != paneComparison {
			return m, nil
		}
		switch msg.String() {
		case " ":
			if id, ok := m.selectedProject(); ok {
				err = cmp.Toggle(id)
			}
		case "a":
			err = cmp.SelectAll()
		case "n":
			err = cmp.DeselectAll()
		case "r":
			err = cmp.ResetFilter()
		}
		m.err = err
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	if m.focus == paneComparison {
		m.projects, cmd = m.projects.Update(msg)
	} else {
		m.segments, cmd = m.segments.Update(msg)
	}
	return m, cmd
}

func (m viewModel) resolveLink() tea.Cmd {
	var (
		id report.ProjectID
		ok bool
	)
	if m.focus == paneComparison {
		id, ok = m.selectedProject()
	} else {
		id, ok = m.sess.Distribution.Select(m.segments.Cursor())
	}
	if !ok {
		return func() tea.Msg { return linkMsg{err: application.ErrNoLink} }
	}
	ctx, queries, mode := m.ctx, m.sess.Queries, m.sess.Controller.Mode()
	return func() tea.Msg {
		link, err := queries.Link(ctx, id, client.ChartProjectIssues, mode)
		return linkMsg{link: link, err: err}
	}
}

func (m viewModel) View() string {
	sess := m.sess
	mode := sess.Controller.Mode()

	title := fmt.Sprintf("Analysis %s: %s", sess.Page.Timestamp, mode.Label())
	if !mode.IgnoresPeriod() && sess.Page.DateFrom != "" {
		title += fmt.Sprintf(" (%s .. %s)", sess.Page.DateFrom, sess.Page.DateTo)
	}
	parts := []string{headerStyle.Render(title)}

	if m.switching {
		parts = append(parts, m.spinner.View()+" Loading "+mode.Other().Label()+"...")
	}
	if m.err != nil {
		parts = append(parts, errorStyle.Render("Error: "+MapError(m.err).Error()))
	}
	if m.link != nil {
		parts = append(parts, linkStyle.Render(m.link.URL), faintStyle.Render(m.link.JQL))
	}

	var summary strings.Builder
	for _, r := range sess.Board.State().Summary.Rows() {
		fmt.Fprintf(&summary, "%-34s %s\n", r.Label, r.Value)
	}
	parts = append(parts, summary.String())

	parts = append(parts, lipgloss.JoinHorizontal(lipgloss.Top,
		baseStyle.Render(m.projects.View()),
		baseStyle.Render(m.segments.View()),
	))

	help := "space: include/exclude  a/n/r: all/none/reset  tab: pane  enter: issues  esc: dismiss  q: quit"
	if sess.CanToggle() {
		help = "m: show " + mode.Other().Label() + "  " + help
	}
	parts = append(parts, faintStyle.Render(help))

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
