// Package dashboard implements the live temperature dashboard TUI using
// BubbleTea: a history bootstrap, a live feed, a sparkline chart and four
// stat tiles, all localized.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	log "github.com/sirupsen/logrus"

	"github.com/luki/tempdash/internal/chart"
	"github.com/luki/tempdash/internal/feed"
	"github.com/luki/tempdash/internal/locale"
	"github.com/luki/tempdash/internal/reading"
	"github.com/luki/tempdash/internal/series"
)

// HistorySource performs the one-shot historical fetch.
type HistorySource interface {
	Fetch(ctx context.Context) ([]reading.Reading, error)
}

// LiveSource streams readings until ctx is done.
type LiveSource interface {
	Run(ctx context.Context, out chan<- reading.Reading, states chan<- feed.ConnState) error
}

// Options configures a dashboard session.
type Options struct {
	History  HistorySource
	Live     LiveSource
	Capacity int
	Locale   locale.Selector
}

// ── Messages ─────────────────────────────────────────────────────────

type historyMsg struct {
	gen      int
	readings []reading.Reading
	err      error
}

type liveReadingMsg struct{ r reading.Reading }

type connStateMsg struct{ state feed.ConnState }

type liveStoppedMsg struct{ err error }

// ── Model ────────────────────────────────────────────────────────────

// screen is shared by every copy of the Model so the aggregator observer
// can update what is drawn.
type screen struct {
	latest series.Snapshot
	frozen series.Snapshot
}

// Model is the BubbleTea model of one dashboard session.
type Model struct {
	agg         *series.Aggregator
	unsubscribe func()
	screen      *screen

	history HistorySource
	live    LiveSource
	ctx     context.Context
	cancel  context.CancelFunc
	liveOut chan reading.Reading
	states  chan feed.ConnState

	sel     locale.Selector
	conn    feed.ConnState
	gen     int
	loading bool
	closed  bool
	paused  bool
	err     error

	width     int
	height    int
	startTime time.Time
	lastLive  time.Time
}

// New creates the model for a dashboard session. The session lives until
// the user quits or ctx is canceled.
func New(ctx context.Context, opts Options) Model {
	ctx, cancel := context.WithCancel(ctx)
	agg := series.New(opts.Capacity)
	scr := &screen{latest: agg.Snapshot()}
	unsubscribe := agg.Subscribe(func(s series.Snapshot) { scr.latest = s })

	return Model{
		agg:         agg,
		unsubscribe: unsubscribe,
		screen:      scr,
		history:     opts.History,
		live:        opts.Live,
		ctx:         ctx,
		cancel:      cancel,
		liveOut:     make(chan reading.Reading, 64),
		states:      make(chan feed.ConnState, 8),
		sel:         opts.Locale,
		conn:        feed.Uninstantiated,
		gen:         1,
		loading:     opts.History != nil,
		startTime:   time.Now(),
	}
}

// Snapshot returns what the session currently holds.
func (m Model) Snapshot() series.Snapshot {
	return m.agg.Snapshot()
}

// ── Commands ─────────────────────────────────────────────────────────

func fetchHistory(ctx context.Context, src HistorySource, gen int) tea.Cmd {
	return func() tea.Msg {
		readings, err := src.Fetch(ctx)
		return historyMsg{gen: gen, readings: readings, err: err}
	}
}

func runLive(ctx context.Context, src LiveSource, out chan<- reading.Reading, states chan<- feed.ConnState) tea.Cmd {
	return func() tea.Msg {
		return liveStoppedMsg{err: src.Run(ctx, out, states)}
	}
}

// waitLive delivers the next live event to Update, one at a time.
func waitLive(ctx context.Context, out <-chan reading.Reading, states <-chan feed.ConnState) tea.Cmd {
	return func() tea.Msg {
		select {
		case r := <-out:
			return liveReadingMsg{r}
		case s := <-states:
			return connStateMsg{s}
		case <-ctx.Done():
			return nil
		}
	}
}

// ── Init / Update ────────────────────────────────────────────────────

func (m Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	if m.history != nil {
		cmds = append(cmds, fetchHistory(m.ctx, m.history, m.gen))
	}
	if m.live != nil {
		cmds = append(cmds,
			runLive(m.ctx, m.live, m.liveOut, m.states),
			waitLive(m.ctx, m.liveOut, m.states))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.teardown()
			return m, tea.Quit
		case "l":
			m.sel = m.sel.Toggle()
		case "r":
			if m.history != nil && !m.closed {
				m.gen++
				m.loading = true
				m.err = nil
				return m, fetchHistory(m.ctx, m.history, m.gen)
			}
		case " ", "p":
			m.paused = !m.paused
			if m.paused {
				m.screen.frozen = m.screen.latest
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case historyMsg:
		if m.closed || msg.gen != m.gen {
			log.WithField("generation", msg.gen).Debug("dashboard: discarding stale history result")
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			log.Errorf("dashboard: error loading historical data: %v", msg.err)
			return m, nil
		}
		m.err = nil
		m.agg.ReplaceAll(msg.readings)

	case liveReadingMsg:
		if m.closed {
			return m, nil
		}
		m.agg.Append(msg.r)
		m.lastLive = time.Now()
		return m, waitLive(m.ctx, m.liveOut, m.states)

	case connStateMsg:
		if m.closed {
			return m, nil
		}
		m.conn = msg.state
		return m, waitLive(m.ctx, m.liveOut, m.states)

	case liveStoppedMsg:
		m.conn = feed.Closed
		if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
			log.Warnf("dashboard: live feed stopped: %v", msg.err)
		}
	}

	return m, nil
}

// teardown releases the live subscription and marks the session closed so
// results still in flight are discarded.
func (m *Model) teardown() {
	if m.closed {
		return
	}
	m.closed = true
	m.cancel()
	m.unsubscribe()
}

// ── Color palette ────────────────────────────────────────────────────

var (
	colorTitleBg  = lipgloss.Color("17")
	colorTitleFg  = lipgloss.Color("51")
	colorBorder   = lipgloss.Color("62")
	colorLabel    = lipgloss.Color("252")
	colorDim      = lipgloss.Color("240")
	colorFooterBg = lipgloss.Color("235")
	colorOk       = lipgloss.Color("78")
	colorOkBg     = lipgloss.Color("22")
	colorCrit     = lipgloss.Color("196")
	colorCritBg   = lipgloss.Color("52")
)

// ── View ─────────────────────────────────────────────────────────────

func (m Model) View() string {
	b := locale.Resolve(m.sel)
	if m.width == 0 {
		return "  " + b.Labels.Loading
	}

	contentWidth := m.width - 2
	if contentWidth < 40 {
		contentWidth = 40
	}

	snap := m.screen.latest
	if m.paused {
		snap = m.screen.frozen
	}

	sections := []string{
		m.renderTitleBar(b, contentWidth),
		m.renderStatus(b, contentWidth),
		m.renderTiles(b, snap, contentWidth),
	}

	if m.err != nil {
		errBox := lipgloss.NewStyle().
			Foreground(colorCrit).
			Bold(true).
			Width(contentWidth).
			Padding(0, 1).
			Render(fmt.Sprintf(" %s: %v", b.Labels.FetchFailed, m.err))
		sections = append(sections, errBox)
	}

	switch {
	case m.loading:
		sections = append(sections, m.renderNotice(b.Labels.Loading, contentWidth))
	case snap.Empty():
		sections = append(sections, m.renderNotice(b.Labels.NoData, contentWidth))
	default:
		sections = append(sections, m.renderChart(b, snap, contentWidth))
	}

	sections = append(sections, m.renderFooter(b, contentWidth))

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	if m.height > 0 {
		lines := strings.Split(content, "\n")
		if len(lines) > m.height {
			content = strings.Join(lines[:m.height], "\n")
		}
	}
	return content
}

func (m Model) renderTitleBar(b locale.Bundle, width int) string {
	logo := lipgloss.NewStyle().
		Bold(true).
		Foreground(colorTitleFg).
		Render(b.Labels.Title)

	dimS := lipgloss.NewStyle().Foreground(colorDim)
	statusParts := []string{
		dimS.Render(fmt.Sprintf("up %s", fmtDuration(time.Since(m.startTime)))),
		dimS.Render(b.Labels.Language+": ") + lipgloss.NewStyle().Foreground(colorLabel).Bold(true).Render(m.sel.String()),
	}
	if !m.lastLive.IsZero() {
		statusParts = append(statusParts, dimS.Render(locale.FormatTimestamp(m.lastLive, b)))
	}
	if m.paused {
		statusParts = append(statusParts, lipgloss.NewStyle().Foreground(colorCrit).Bold(true).Render(b.Labels.Paused))
	}

	sep := dimS.Render(" │ ")
	right := strings.Join(statusParts, sep)

	gap := width - lipgloss.Width(logo) - lipgloss.Width(right) - 4
	if gap < 1 {
		gap = 1
	}

	return lipgloss.NewStyle().
		Background(colorTitleBg).
		Width(width).
		Padding(0, 1).
		Render(logo + strings.Repeat(" ", gap) + right)
}

func (m Model) renderStatus(b locale.Bundle, width int) string {
	badge := lipgloss.NewStyle().Padding(0, 1).Bold(true)
	if m.conn == feed.Open {
		badge = badge.Foreground(colorOk).Background(colorOkBg)
	} else {
		badge = badge.Foreground(colorCrit).Background(colorCritBg)
	}

	label := lipgloss.NewStyle().Foreground(colorDim).Render(b.Labels.ConnectionStatus + ": ")
	return lipgloss.NewStyle().
		Width(width).
		Padding(1, 1, 0).
		Render(label + badge.Render(connLabel(m.conn, b)))
}

func connLabel(s feed.ConnState, b locale.Bundle) string {
	switch s {
	case feed.Connecting:
		return b.Labels.Connecting
	case feed.Open:
		return b.Labels.Connected
	case feed.Closing:
		return b.Labels.Disconnecting
	case feed.Closed:
		return b.Labels.Disconnected
	default:
		return b.Labels.Uninstantiated
	}
}

func (m Model) renderTiles(b locale.Bundle, snap series.Snapshot, width int) string {
	st := snap.Stats
	cur, curOK := st.CurrentValue()
	hi, hiOK := st.MaxValue()
	lo, loOK := st.MinValue()
	avg, avgOK := st.AverageValue()

	tiles := []struct{ title, value, icon string }{
		{b.Labels.CurrentTemp, locale.FormatTemp(cur, curOK, b), "🌡"},
		{b.Labels.MaxTemp, locale.FormatTemp(hi, hiOK, b), "▲"},
		{b.Labels.MinTemp, locale.FormatTemp(lo, loOK, b), "▼"},
		{b.Labels.AvgTemp, locale.FormatTemp(avg, avgOK, b), "≈"},
	}

	perRow := 4
	if width < 100 {
		perRow = 2
	}
	tileWidth := width/perRow - 2

	var rows []string
	for i := 0; i < len(tiles); i += perRow {
		var row []string
		for _, t := range tiles[i : i+perRow] {
			row = append(row, chart.RenderTile(t.title, t.value, t.icon, tileWidth))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) renderNotice(text string, width int) string {
	return lipgloss.NewStyle().
		Foreground(colorDim).
		Width(width).
		Align(lipgloss.Center).
		Padding(2, 0).
		Render(text)
}

func (m Model) renderChart(b locale.Bundle, snap series.Snapshot, width int) string {
	chartWidth := width - 6
	if chartWidth < 15 {
		chartWidth = 15
	}

	rng := chart.YRange(snap.Stats)
	dimS := lipgloss.NewStyle().Foreground(colorDim)
	frameL := lipgloss.NewStyle().Foreground(colorBorder).Render("▕")
	frameR := lipgloss.NewStyle().Foreground(colorBorder).Render("▏")

	rows := []string{
		lipgloss.NewStyle().Bold(true).Foreground(colorLabel).Render(b.Labels.Temperature) +
			dimS.Render(fmt.Sprintf("  %s … %s", locale.FormatTemp(rng.Min, true, b), locale.FormatTemp(rng.Max, true, b))),
		frameL + chart.RenderSparkline(snap.Readings, chartWidth, rng, snap.Stats) + frameR,
	}
	if timeline := chart.RenderTimeline(snap.Readings, chartWidth, b); strings.TrimSpace(timeline) != "" {
		rows = append(rows, " "+timeline)
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1).
		Width(width).
		Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m Model) renderFooter(b locale.Bundle, width int) string {
	dimS := lipgloss.NewStyle().Foreground(colorDim)
	keyS := lipgloss.NewStyle().Foreground(colorLabel)

	keys := dimS.Render("q") + keyS.Render(":quit") +
		dimS.Render("  l") + keyS.Render(":"+strings.ToLower(b.Labels.Language)) +
		dimS.Render("  r") + keyS.Render(":reload") +
		dimS.Render("  p") + keyS.Render(":pause")

	return lipgloss.NewStyle().
		Background(colorFooterBg).
		Width(width).
		Padding(0, 1).
		Render(keys)
}

func fmtDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

// Run starts the dashboard in the terminal and blocks until the user quits.
func Run(ctx context.Context, opts Options) error {
	m := New(ctx, opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		fm.teardown()
	} else {
		m.teardown()
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}
