package ui

import (
	"context"
	"fmt"
	"path/filepath"

	"animreview/internal/logging"
	"animreview/internal/report"
	"animreview/internal/review"
	"animreview/internal/schema"
	"animreview/internal/source"
	"animreview/internal/watch"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

// Options wires the presenter to a reviewer and, optionally, a watcher.
type Options struct {
	Dir      string
	Pattern  string
	Exclude  []string
	Reviewer *review.Reviewer
	Watcher  *watch.Watcher // nil disables live refresh
	Styles   Styles
	Symbols  []schema.WatchedSymbol
	Logger   *zap.Logger
}

type pane int

const (
	paneList pane = iota
	paneDetail
)

// batchMsg carries a finished review run.
type batchMsg struct {
	batch *review.Batch
	err   error
}

// changeMsg is a settled watcher event.
type changeMsg watch.Event

// fileItem is one submission in the sidebar.
type fileItem struct {
	report *review.Report
}

func (i fileItem) Title() string       { return i.report.Name() }
func (i fileItem) FilterValue() string { return i.report.Name() }

func (i fileItem) Description() string {
	return fmt.Sprintf("%s · %.1f%%", report.Status(i.report.Validation.Valid), i.report.Comparison.OverallSimilarity)
}

// Model is the root bubbletea model.
type Model struct {
	opts   Options
	logger *zap.Logger

	list     list.Model
	viewport viewport.Model
	help     help.Model
	keys     keyMap

	batch     *review.Batch
	err       error
	loading   bool
	showDiffs bool
	focus     pane
	selected  string
	content   string

	width  int
	height int
}

// New builds the model. Call Init (or Run) to start the first review.
func New(opts Options) Model {
	if opts.Pattern == "" {
		opts.Pattern = source.DefaultPattern
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(opts.Styles.Theme.Primary).
		BorderForeground(opts.Styles.Theme.Accent)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(opts.Styles.Theme.Muted).
		BorderForeground(opts.Styles.Theme.Accent)

	l := list.New(nil, delegate, 30, 20)
	l.Title = "Submissions"
	l.Styles.Title = opts.Styles.Section
	l.SetShowHelp(false)
	l.DisableQuitKeybindings()

	return Model{
		opts:     opts,
		logger:   logging.Named(opts.Logger, logging.CategoryUI),
		list:     l,
		viewport: viewport.New(60, 20),
		help:     help.New(),
		keys:     defaultKeyMap(),
		loading:  true,
	}
}

// Init starts the first review and, when watching, the change listener.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.reviewCmd(), m.waitForChange())
}

func (m Model) reviewCmd() tea.Cmd {
	opts := m.opts
	return func() tea.Msg {
		paths, err := source.Discover(opts.Dir, opts.Pattern, opts.Exclude...)
		if err != nil {
			return batchMsg{err: err}
		}
		batch, err := opts.Reviewer.ReviewAll(context.Background(), paths)
		return batchMsg{batch: batch, err: err}
	}
}

func (m Model) waitForChange() tea.Cmd {
	if m.opts.Watcher == nil {
		return nil
	}
	events := m.opts.Watcher.Events()
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return changeMsg(ev)
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.setSize(msg.Width, msg.Height)
		return m, nil

	case batchMsg:
		m.loading = false
		m.err = msg.err
		if msg.batch != nil {
			m.batch = msg.batch
			m.setItems(msg.batch.Reports)
		} else {
			m.batch = nil
			m.setItems(nil)
		}
		if msg.err != nil {
			m.logger.Warn("Review run failed", zap.Error(msg.err))
		}
		m.refreshDetail()
		return m, nil

	case changeMsg:
		m.logger.Debug("Files changed", zap.Strings("paths", msg.Paths))
		m.loading = true
		return m, tea.Batch(m.reviewCmd(), m.waitForChange())

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			var cmd tea.Cmd
			m.list, cmd = m.list.Update(msg)
			m.refreshDetail()
			return m, cmd
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			m.loading = true
			return m, m.reviewCmd()
		case key.Matches(msg, m.keys.Diffs):
			m.showDiffs = !m.showDiffs
			m.refreshDetail()
			return m, nil
		case key.Matches(msg, m.keys.Focus):
			if m.focus == paneList {
				m.focus = paneDetail
			} else {
				m.focus = paneList
			}
			return m, nil
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			m.setSize(m.width, m.height)
			return m, nil
		}

		var cmd tea.Cmd
		if m.focus == paneDetail {
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		m.list, cmd = m.list.Update(msg)
		m.refreshDetail()
		return m, cmd
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) setItems(reports []*review.Report) {
	items := make([]list.Item, 0, len(reports))
	for _, r := range reports {
		items = append(items, fileItem{report: r})
	}
	m.list.SetItems(items)

	// Keep the cursor on the same file across refreshes.
	for i, r := range reports {
		if r.Path == m.selected {
			m.list.Select(i)
			return
		}
	}
}

func (m *Model) current() *review.Report {
	item, ok := m.list.SelectedItem().(fileItem)
	if !ok {
		return nil
	}
	return item.report
}

func (m *Model) refreshDetail() {
	r := m.current()
	d := detailRenderer{
		styles:  m.opts.Styles,
		symbols: m.opts.Symbols,
		width:   m.viewport.Width,
	}
	if m.opts.Reviewer != nil {
		d.engine = m.opts.Reviewer.Diff()
	}
	m.content = d.render(r, m.showDiffs)
	m.viewport.SetContent(m.content)

	path := ""
	if r != nil {
		path = r.Path
	}
	if path != m.selected {
		m.selected = path
		m.viewport.GotoTop()
	}
}

func (m *Model) setSize(w, h int) {
	m.width = w
	m.height = h
	if w == 0 || h == 0 {
		return
	}

	helpHeight := 1
	if m.help.ShowAll {
		helpHeight = len(m.keys.FullHelp()[0])
	}
	// header, status line and both pane borders
	bodyHeight := h - 3 - helpHeight - 2
	if bodyHeight < 3 {
		bodyHeight = 3
	}

	leftOuter := w / 3
	if leftOuter < 24 {
		leftOuter = 24
	}
	rightOuter := w - leftOuter
	if rightOuter < 20 {
		rightOuter = 20
	}

	m.list.SetSize(leftOuter-4, bodyHeight)
	m.viewport.Width = rightOuter - 4
	m.viewport.Height = bodyHeight
	m.help.Width = w
	m.refreshDetail()
}

// View renders the header, both panes and the footer.
func (m Model) View() string {
	s := m.opts.Styles

	header := s.Header.Render("animreview  " + filepath.Clean(m.opts.Dir))

	sidebar, detail := s.Sidebar, s.Detail
	if m.focus == paneList {
		sidebar = sidebar.BorderForeground(s.Theme.Accent)
	} else {
		detail = detail.BorderForeground(s.Theme.Accent)
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		sidebar.Width(m.list.Width()+2).Render(m.list.View()),
		detail.Width(m.viewport.Width+2).Render(m.viewport.View()),
	)

	footer := lipgloss.JoinVertical(lipgloss.Left,
		s.Footer.Render(m.status()),
		s.Footer.Render(m.help.View(m.keys)),
	)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m Model) status() string {
	s := m.opts.Styles
	switch {
	case m.loading:
		return s.Muted.Render("Reviewing…")
	case m.err != nil:
		return s.Error.Render(m.err.Error())
	case m.batch == nil:
		return ""
	}

	sum := m.batch.Summary()
	text := fmt.Sprintf("%d file(s) · %d valid · %d invalid · average %.1f%%",
		sum.Total, sum.Valid, sum.Invalid, sum.Average)
	if base := m.batch.BasePath; base != "" {
		text += " · base " + filepath.Base(base)
	}
	return text
}

// Run blocks until the user quits.
func Run(opts Options) error {
	p := tea.NewProgram(New(opts), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("ui: %w", err)
	}
	return nil
}
