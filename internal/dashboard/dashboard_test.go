package dashboard

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"

	"github.com/luki/tempdash/internal/feed"
	"github.com/luki/tempdash/internal/locale"
	"github.com/luki/tempdash/internal/reading"
	"github.com/luki/tempdash/internal/stats"
)

type fakeHistory struct {
	readings []reading.Reading
	err      error
}

func (f fakeHistory) Fetch(ctx context.Context) ([]reading.Reading, error) {
	return f.readings, f.err
}

type fakeLive struct {
	readings []reading.Reading
}

func (f fakeLive) Run(ctx context.Context, out chan<- reading.Reading, states chan<- feed.ConnState) error {
	states <- feed.Open
	for _, r := range f.readings {
		select {
		case out <- r:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	<-ctx.Done()
	return ctx.Err()
}

var base = time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)

func at(d time.Duration, temp float64) reading.Reading {
	return reading.New(base.Add(d), temp)
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return nm, cmd
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newModel(t *testing.T, opts Options) Model {
	t.Helper()
	m := New(context.Background(), opts)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 60})
	t.Cleanup(m.teardown)
	return m
}

func TestHistoryLoadSortsAndSummarizes(t *testing.T) {
	m := newModel(t, Options{History: fakeHistory{}})
	if !strings.Contains(m.View(), locale.Resolve(locale.BR).Labels.Loading) {
		t.Error("loading label not shown while fetch is outstanding")
	}

	m, _ = update(t, m, historyMsg{gen: 1, readings: []reading.Reading{at(10*time.Hour, 20), at(9*time.Hour, 22)}})

	snap := m.Snapshot()
	want := []reading.Reading{at(9*time.Hour, 22), at(10*time.Hour, 20)}
	if diff := cmp.Diff(want, snap.Readings); diff != "" {
		t.Errorf("buffer mismatch (-want +got):\n%s", diff)
	}
	if snap.Stats != (stats.Stats{Current: 20, Max: 22, Min: 20, Average: 21, Count: 2}) {
		t.Errorf("stats = %+v", snap.Stats)
	}

	view := m.View()
	for _, s := range []string{"20,0°C", "22,0°C", "21,0°C"} {
		if !strings.Contains(view, s) {
			t.Errorf("view missing %q", s)
		}
	}
}

func TestStaleHistoryDiscarded(t *testing.T) {
	m := newModel(t, Options{History: fakeHistory{}})

	m, cmd := update(t, m, key("r"))
	if cmd == nil {
		t.Fatal("reload did not issue a fetch")
	}

	m, _ = update(t, m, historyMsg{gen: 1, readings: []reading.Reading{at(0, 1)}})
	if got := m.Snapshot(); !got.Empty() {
		t.Errorf("stale result applied: %v", got.Readings)
	}
	if !m.loading {
		t.Error("stale result cleared the loading state")
	}

	m, _ = update(t, m, historyMsg{gen: 2, readings: []reading.Reading{at(0, 2)}})
	if got := m.Snapshot().Readings; len(got) != 1 || got[0].Temperature != 2 {
		t.Errorf("current result not applied: %v", got)
	}
}

func TestQuitDiscardsPendingResults(t *testing.T) {
	m := newModel(t, Options{History: fakeHistory{}})

	m, cmd := update(t, m, key("q"))
	if cmd == nil {
		t.Fatal("quit returned no command")
	}
	if m.ctx.Err() == nil {
		t.Error("quit did not cancel the session context")
	}

	m, _ = update(t, m, historyMsg{gen: 1, readings: []reading.Reading{at(0, 1)}})
	m, _ = update(t, m, liveReadingMsg{at(time.Second, 2)})
	if got := m.Snapshot(); !got.Empty() {
		t.Errorf("results applied after teardown: %v", got.Readings)
	}
}

func TestFetchFailureKeepsBuffer(t *testing.T) {
	m := newModel(t, Options{History: fakeHistory{}})

	m, _ = update(t, m, liveReadingMsg{at(0, 18)})
	m, _ = update(t, m, historyMsg{gen: 1, err: errors.New("connection refused")})

	if got := m.Snapshot().Readings; len(got) != 1 || got[0].Temperature != 18 {
		t.Errorf("buffer changed by failed fetch: %v", got)
	}
	if m.loading {
		t.Error("still loading after failure")
	}
	view := m.View()
	if !strings.Contains(view, locale.Resolve(locale.BR).Labels.FetchFailed) {
		t.Error("failure not reported in view")
	}
}

func TestLiveReadingsBoundedByCapacity(t *testing.T) {
	m := newModel(t, Options{Capacity: 3})

	m, _ = update(t, m, historyMsg{gen: 1})
	for i, v := range []float64{5, 7, 9, 11} {
		var cmd tea.Cmd
		m, cmd = update(t, m, liveReadingMsg{at(time.Duration(i+1)*time.Second, v)})
		if cmd == nil {
			t.Fatal("live reading did not re-arm the listener")
		}
	}

	snap := m.Snapshot()
	if diff := cmp.Diff([]float64{7, 9, 11}, reading.Temperatures(snap.Readings)); diff != "" {
		t.Errorf("buffer mismatch (-want +got):\n%s", diff)
	}
	if snap.Stats != (stats.Stats{Current: 11, Max: 11, Min: 7, Average: 9, Count: 3}) {
		t.Errorf("stats = %+v", snap.Stats)
	}
}

func TestNoDataState(t *testing.T) {
	m := newModel(t, Options{History: fakeHistory{}})
	m, _ = update(t, m, historyMsg{gen: 1, readings: []reading.Reading{}})

	view := m.View()
	if !strings.Contains(view, locale.Resolve(locale.BR).Labels.NoData) {
		t.Error("no-data label not shown for empty buffer")
	}
	if !strings.Contains(view, "N/A") {
		t.Error("absent stats not rendered as placeholder")
	}
}

func TestConnectionStatusAndLocaleToggle(t *testing.T) {
	m := newModel(t, Options{})

	if !strings.Contains(m.View(), "Não inicializado") {
		t.Error("initial status should be uninstantiated")
	}

	m, _ = update(t, m, connStateMsg{feed.Open})
	if !strings.Contains(m.View(), "Conectado") {
		t.Error("open status not shown in BR")
	}

	m, _ = update(t, m, key("l"))
	view := m.View()
	if !strings.Contains(view, "Connected") || !strings.Contains(view, "Real-Time Temperature Monitor") {
		t.Error("locale toggle did not switch labels to US")
	}

	m, _ = update(t, m, liveStoppedMsg{err: context.Canceled})
	if !strings.Contains(m.View(), "Disconnected") {
		t.Error("stopped feed not shown as disconnected")
	}
}

func TestPauseFreezesView(t *testing.T) {
	m := newModel(t, Options{Locale: locale.US})
	m, _ = update(t, m, liveReadingMsg{at(0, 10)})
	m, _ = update(t, m, key("p"))
	m, _ = update(t, m, liveReadingMsg{at(time.Second, 30)})

	if m.Snapshot().Stats.Current != 30 {
		t.Error("readings must still be appended while paused")
	}
	view := m.View()
	if strings.Contains(view, "30.0°C") {
		t.Error("paused view shows a reading that arrived after pausing")
	}
	if !strings.Contains(view, "PAUSED") {
		t.Error("pause marker missing")
	}

	m, _ = update(t, m, key("p"))
	if !strings.Contains(m.View(), "30.0°C") {
		t.Error("resumed view does not show the latest reading")
	}
}

func TestLiveCommands(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := make(chan reading.Reading, 1)
	states := make(chan feed.ConnState, 1)
	stopped := make(chan tea.Msg, 1)
	src := fakeLive{readings: []reading.Reading{at(0, 21)}}
	go func() { stopped <- runLive(ctx, src, out, states)() }()

	wait := waitLive(ctx, out, states)
	got := map[string]bool{}
	for i := 0; i < 2; i++ {
		switch msg := wait().(type) {
		case connStateMsg:
			got["state"] = msg.state == feed.Open
		case liveReadingMsg:
			got["reading"] = msg.r.Temperature == 21
		default:
			t.Fatalf("unexpected message %T", msg)
		}
	}
	if !got["state"] || !got["reading"] {
		t.Errorf("messages: %v", got)
	}

	cancel()
	select {
	case msg := <-stopped:
		if m, ok := msg.(liveStoppedMsg); !ok || !errors.Is(m.err, context.Canceled) {
			t.Errorf("stopped message = %#v", msg)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("live command did not return after cancel")
	}
	if msg := wait(); msg != nil {
		t.Errorf("wait after cancel returned %#v", msg)
	}
}
