package feed

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/jpillora/backoff"
	log "github.com/sirupsen/logrus"
	"golang.org/x/net/websocket"

	"github.com/luki/tempdash/internal/reading"
)

const defaultOrigin = "http://localhost/"

// LiveConfig configures a LiveSource.
type LiveConfig struct {
	URL          string
	Origin       string        // defaults to http://localhost/
	ReconnectMin time.Duration // first delay after a dropped connection
	ReconnectMax time.Duration
}

// LiveSource keeps a WebSocket subscription alive and emits every valid
// reading it receives. It always reconnects when the connection closes.
type LiveSource struct {
	cfg LiveConfig
}

// NewLiveSource returns a LiveSource for cfg.
func NewLiveSource(cfg LiveConfig) *LiveSource {
	if cfg.Origin == "" {
		cfg.Origin = defaultOrigin
	}
	if cfg.ReconnectMin <= 0 {
		cfg.ReconnectMin = 500 * time.Millisecond
	}
	if cfg.ReconnectMax < cfg.ReconnectMin {
		cfg.ReconnectMax = 30 * time.Second
	}
	return &LiveSource{cfg: cfg}
}

// Run connects, forwards readings to out and reports every phase change on
// states (which may be nil). It only returns once ctx is done, and the
// current connection is always closed before it does.
func (l *LiveSource) Run(ctx context.Context, out chan<- reading.Reading, states chan<- ConnState) error {
	b := &backoff.Backoff{
		Min:    l.cfg.ReconnectMin,
		Max:    l.cfg.ReconnectMax,
		Factor: 2,
		Jitter: true,
	}
	report := func(s ConnState) {
		if states == nil {
			return
		}
		select {
		case states <- s:
		case <-ctx.Done():
		}
	}

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		report(Connecting)
		ws, err := l.dial(ctx)
		if err != nil {
			dur := b.Duration()
			log.WithFields(log.Fields{"url": l.cfg.URL, "retry_in": dur}).Warnf("live feed: dial failed: %v", err)
			report(Closed)
			if !sleep(ctx, dur) {
				return ctx.Err()
			}
			continue
		}

		b.Reset()
		report(Open)
		log.WithField("url", l.cfg.URL).Info("live feed: connected")

		conn := &onceCloser{c: ws}
		err = l.consume(ctx, ws, conn, out)

		report(Closing)
		if cerr := conn.Close(); cerr != nil {
			log.WithField("url", l.cfg.URL).Debugf("live feed: close: %v", cerr)
		}
		report(Closed)

		if ctx.Err() != nil {
			return ctx.Err()
		}
		dur := b.Duration()
		log.WithFields(log.Fields{"url": l.cfg.URL, "retry_in": dur}).Warnf("live feed: connection lost: %v", err)
		if !sleep(ctx, dur) {
			return ctx.Err()
		}
	}
}

func (l *LiveSource) dial(ctx context.Context) (*websocket.Conn, error) {
	wsCfg, err := websocket.NewConfig(l.cfg.URL, l.cfg.Origin)
	if err != nil {
		return nil, err
	}
	return wsCfg.DialContext(ctx)
}

// onceCloser closes c at most once and hands every caller the result of
// that single close.
type onceCloser struct {
	c    io.Closer
	once sync.Once
	err  error
}

func (o *onceCloser) Close() error {
	o.once.Do(func() { o.err = o.c.Close() })
	return o.err
}

// consume reads frames until the connection fails or ctx is done, closing
// conn early on cancellation to unblock the read. Frames that do not decode
// to a valid reading are dropped.
func (l *LiveSource) consume(ctx context.Context, ws *websocket.Conn, conn io.Closer, out chan<- reading.Reading) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		var frame []byte
		if err := websocket.Message.Receive(ws, &frame); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		r, err := DecodeReading(frame)
		if err != nil {
			log.WithField("frame", string(frame)).Warnf("live feed: dropping message: %v", err)
			continue
		}

		select {
		case out <- r:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
