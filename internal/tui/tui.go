package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Zuo-Peng/ai-session-stats/internal/index"
	"github.com/Zuo-Peng/ai-session-stats/internal/open"
	"github.com/Zuo-Peng/ai-session-stats/internal/search"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const debounceDelay = 200 * time.Millisecond

type sortOrder int

const (
	byRecency sortOrder = iota // order the index returned
	byActive                   // most active time first
)

func (o sortOrder) next() sortOrder {
	if o == byActive {
		return byRecency
	}
	return byActive
}

func (o sortOrder) String() string {
	if o == byActive {
		return "active time"
	}
	return "recent"
}

// resultsMsg carries a finished lookup. query and project identify the
// request so late answers to an older one can be dropped.
type resultsMsg struct {
	query   string
	project string
	results []search.Result
	err     error
}

type debounceMsg struct {
	query string
}

type model struct {
	db     *index.DB
	opts   search.Options
	browse bool // list every session while the input is empty

	query   string
	fetched []search.Result // as returned by the index
	results []search.Result // fetched, arranged by order
	order   sortOrder
	cursor  int
	offset  int

	input      textinput.Model
	preview    viewport.Model
	previewKey string
	layout     layout
	ready      bool

	done   bool
	picked *search.Result
	edit   bool
}

func newModel(db *index.DB, query string, opts search.Options, browse bool) model {
	in := textinput.New()
	in.Prompt = "> "
	in.PromptStyle = styleInputPrompt
	in.TextStyle = styleInput
	in.CharLimit = 256
	in.Placeholder = "Search..."
	if browse {
		in.Placeholder = "Filter..."
	}
	in.SetValue(query)
	in.Focus()

	return model{
		db:      db,
		opts:    opts,
		browse:  browse,
		query:   query,
		input:   in,
		preview: viewport.New(0, 0),
	}
}

// Run opens the search view seeded with query. Enter copies the resume
// command of the chosen session, ctrl+o opens its file in $EDITOR.
func Run(db *index.DB, query string, opts search.Options) error {
	return run(newModel(db, query, opts, false))
}

// RunList opens the session list, newest first.
func RunList(db *index.DB, opts search.Options) error {
	return run(newModel(db, "", opts, true))
}

func run(m model) error {
	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}

	fm := final.(model)
	if fm.picked == nil {
		return nil
	}
	if fm.edit {
		return open.OpenSession(fm.db, fm.picked.SessionKey, fm.picked.Seq)
	}
	copyResume(*fm.picked)
	return nil
}

func (m model) Init() tea.Cmd {
	if m.browse || m.query != "" {
		return tea.Batch(textinput.Blink, m.reload())
	}
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = layout{width: msg.Width, height: msg.Height}
		m.ready = true
		m.preview = newViewport(m.layout.previewWidth(), m.layout.panelHeight())
		m.previewKey = ""
		return m, m.loadPreview()

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case debounceMsg:
		if msg.query != m.query {
			return m, nil
		}
		return m, m.reload()

	case resultsMsg:
		return m.applyResults(msg)

	case previewRenderedMsg:
		return m.showPreview(msg), nil
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	half := m.layout.panelHeight() / 2

	switch {
	case key.Matches(msg, keys.Quit):
		m.done = true
		return m, tea.Quit

	case key.Matches(msg, keys.Copy), key.Matches(msg, keys.Edit):
		r, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.picked = &r
		m.edit = key.Matches(msg, keys.Edit)
		m.done = true
		return m, tea.Quit

	case key.Matches(msg, keys.Up):
		return m.moveTo(m.cursor - 1)

	case key.Matches(msg, keys.Down):
		return m.moveTo(m.cursor + 1)

	case key.Matches(msg, keys.Sort):
		m.order = m.order.next()
		m.arrange()
		return m, m.loadPreview()

	case key.Matches(msg, keys.Project):
		return m.toggleProject()

	case key.Matches(msg, keys.HalfUp):
		m.preview.LineUp(half)
		return m, nil
	case key.Matches(msg, keys.HalfDown):
		m.preview.LineDown(half)
		return m, nil
	case key.Matches(msg, keys.PageUp):
		m.preview.LineUp(2 * half)
		return m, nil
	case key.Matches(msg, keys.PageDown):
		m.preview.LineDown(2 * half)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if q := m.input.Value(); q != m.query {
		m.query = q
		return m, tea.Batch(cmd, debounce(q))
	}
	return m, cmd
}

func (m model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if !m.ready || len(m.results) == 0 {
		return m, nil
	}

	where, row := m.layout.at(msg.X, msg.Y)
	switch where {
	case regionList:
		switch {
		case msg.Button == tea.MouseButtonWheelUp:
			m.offset = max(m.offset-1, 0)
		case msg.Button == tea.MouseButtonWheelDown:
			m.offset = min(m.offset+1, max(len(m.results)-m.layout.visibleItems(), 0))
		case msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress:
			return m.moveTo(m.offset + row/linesPerItem)
		}
	case regionPreview:
		if msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown {
			var cmd tea.Cmd
			m.preview, cmd = m.preview.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m model) moveTo(i int) (tea.Model, tea.Cmd) {
	if i < 0 || i >= len(m.results) || i == m.cursor {
		return m, nil
	}
	m.cursor = i
	m.adjustListScroll(m.layout.panelHeight())
	return m, m.loadPreview()
}

// toggleProject narrows the lookup to the selected session's project, or
// drops the project filter when one is already set.
func (m model) toggleProject() (tea.Model, tea.Cmd) {
	switch r, ok := m.selected(); {
	case m.opts.Project != "":
		m.opts.Project = ""
	case ok && r.ProjectName != "":
		m.opts.Project = r.ProjectName
	default:
		return m, nil
	}
	return m, m.reload()
}

func (m model) applyResults(msg resultsMsg) (tea.Model, tea.Cmd) {
	if msg.query != m.query || msg.project != m.opts.Project {
		return m, nil
	}

	m.fetched, m.results = nil, nil
	m.cursor, m.offset = 0, 0
	m.previewKey = ""
	if msg.err != nil {
		m.preview.SetContent("Error: " + msg.err.Error())
		return m, nil
	}

	m.fetched = msg.results
	m.arrange()
	if len(m.results) == 0 {
		m.preview.SetContent("")
		return m, nil
	}
	return m, m.loadPreview()
}

// arrange rebuilds results from fetched in the current order, keeping the
// selected session under the cursor.
func (m *model) arrange() {
	var keep string
	if r, ok := m.selected(); ok {
		keep = r.SessionKey
	}

	m.results = append([]search.Result(nil), m.fetched...)
	if m.order == byActive {
		sort.SliceStable(m.results, func(i, j int) bool {
			return m.results[i].ActiveMs > m.results[j].ActiveMs
		})
	}

	m.cursor = 0
	for i, r := range m.results {
		if r.SessionKey == keep {
			m.cursor = i
			break
		}
	}
	m.offset = 0
	m.adjustListScroll(m.layout.panelHeight())
}

func (m model) showPreview(msg previewRenderedMsg) model {
	r, ok := m.selected()
	key := previewCacheKey(msg.sessionKey, msg.seq)
	if !ok || key != previewCacheKey(r.SessionKey, r.Seq) || key == m.previewKey {
		return m
	}

	switch {
	case msg.err != nil:
		m.preview.SetContent("Preview error: " + msg.err.Error())
	case msg.hitLine > 0:
		m.preview.SetContent(msg.content)
		m.preview.SetYOffset(msg.hitLine)
	default:
		m.preview.SetContent(msg.content)
		m.preview.GotoTop()
	}
	m.previewKey = key
	return m
}

func (m model) View() string {
	if m.done || !m.ready {
		return ""
	}

	lw, pw, ph := m.layout.listWidth(), m.layout.previewWidth(), m.layout.panelHeight()
	list := stylePanelBorder.Width(lw).Height(ph).Render(m.renderList(lw, ph))

	m.preview.Width, m.preview.Height = pw, ph
	preview := styleActiveBorder.Width(pw).Height(ph).Render(m.preview.View())

	return lipgloss.JoinVertical(lipgloss.Left,
		m.input.View(),
		lipgloss.JoinHorizontal(lipgloss.Top, list, preview),
		m.statusBar(),
	)
}

// statusBar shows the selected session's stats, the list state and the
// key help.
func (m model) statusBar() string {
	var parts []string
	if r, ok := m.selected(); ok {
		parts = append(parts, fmt.Sprintf("%s  %s active  %d cmds",
			r.ProjectName, r.ActiveDuration, r.UserCommands))
	}

	noun := "results"
	if m.browse && m.query == "" {
		noun = "sessions"
	}
	parts = append(parts, fmt.Sprintf("%d %s", len(m.results), noun), "sort: "+m.order.String())
	if m.opts.Project != "" {
		parts = append(parts, "project: "+m.opts.Project)
	}

	for _, b := range keys.help() {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return styleStatusBar.Render(strings.Join(parts, " | "))
}

func (m model) selected() (search.Result, bool) {
	if m.cursor < 0 || m.cursor >= len(m.results) {
		return search.Result{}, false
	}
	return m.results[m.cursor], true
}

// reload runs the lookup for the current input: a full-text search when
// there is a query, otherwise the session list in browse mode.
func (m model) reload() tea.Cmd {
	db, opts, browse := m.db, m.opts, m.browse
	opts.Query = m.query
	return func() tea.Msg {
		msg := resultsMsg{query: opts.Query, project: opts.Project}
		switch {
		case opts.Query != "":
			msg.results, msg.err = search.Search(db, opts)
		case browse:
			msg.results, msg.err = search.ListAll(db, opts)
		}
		return msg
	}
}

func debounce(query string) tea.Cmd {
	return tea.Tick(debounceDelay, func(time.Time) tea.Msg {
		return debounceMsg{query: query}
	})
}

func (m model) loadPreview() tea.Cmd {
	r, ok := m.selected()
	if !ok || previewCacheKey(r.SessionKey, r.Seq) == m.previewKey {
		return nil
	}
	return loadPreviewCmd(m.db, r, m.query, m.layout.previewWidth())
}
