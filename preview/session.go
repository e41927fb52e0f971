// Package preview compiles editor input into live MDX previews. Every
// input starts a new compile cycle; a cycle that is superseded by newer
// input, or whose session is closed, never reaches the displayed view.
package preview

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/eringen/mdxpress/mdx"
)

// Placeholder is shown for empty input. It is never compiled.
const Placeholder = "Start writing MDX to see the preview."

// PlaceholderHTML is the markup displayed for Placeholder.
const PlaceholderHTML = `<p class="mdx-placeholder">` + Placeholder + `</p>`

var (
	// ErrClosed is returned by Update after Close.
	ErrClosed = errors.New("preview: session closed")

	errSuperseded = errors.New("preview: superseded by newer input")
)

// Renderer compiles MDX source; *mdx.Renderer satisfies it.
type Renderer interface {
	Render(ctx context.Context, src string) (mdx.Document, error)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, src string) (mdx.Document, error)

func (f RendererFunc) Render(ctx context.Context, src string) (mdx.Document, error) {
	return f(ctx, src)
}

// State is the position of a session in its compile cycle.
type State string

const (
	StateIdle      State = "idle"
	StateCompiling State = "compiling"
	StateRendered  State = "rendered"
	StateFailed    State = "failed"
)

// View is what the preview pane displays. HTML is empty whenever State is
// failed; a failure never leaves an older render on screen.
type View struct {
	Seq         uint64 `json:"seq"`
	State       State  `json:"state"`
	HTML        string `json:"html"`
	Error       string `json:"error,omitempty"`
	Placeholder bool   `json:"placeholder,omitempty"`
}

// Ticket identifies one compile cycle. Done is closed once the cycle has
// settled, whether it was displayed or discarded.
type Ticket struct {
	Seq  uint64
	Done <-chan struct{}
}

// Stale reports whether v belongs to a later cycle than t.
func (t Ticket) Stale(v View) bool { return v.Seq != t.Seq }

// Session holds the preview state of one editor.
type Session struct {
	renderer Renderer
	timeout  time.Duration

	ctx    context.Context
	close  context.CancelCauseFunc
	mu     sync.Mutex
	seq    uint64
	cancel context.CancelCauseFunc
	view   View
}

// NewSession creates an idle session. A positive timeout bounds each compile.
func NewSession(r Renderer, timeout time.Duration) *Session {
	ctx, cancel := context.WithCancelCause(context.Background())
	return &Session{
		renderer: r,
		timeout:  timeout,
		ctx:      ctx,
		close:    cancel,
		view:     View{State: StateIdle},
	}
}

// Update starts a compile cycle for src and supersedes any cycle still in
// flight. Empty input settles immediately with the placeholder.
func (s *Session) Update(src string) (Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx.Err() != nil {
		return Ticket{}, ErrClosed
	}
	if s.cancel != nil {
		s.cancel(errSuperseded)
		s.cancel = nil
	}
	s.seq++
	seq := s.seq
	done := make(chan struct{})

	if strings.TrimSpace(src) == "" {
		s.view = View{Seq: seq, State: StateRendered, HTML: PlaceholderHTML, Placeholder: true}
		close(done)
		return Ticket{Seq: seq, Done: done}, nil
	}

	cycle, cancel := context.WithCancelCause(s.ctx)
	s.cancel = cancel
	s.view.Seq = seq
	s.view.State = StateCompiling
	go s.compile(cycle, cancel, seq, src, done)
	return Ticket{Seq: seq, Done: done}, nil
}

func (s *Session) compile(cycle context.Context, cancel context.CancelCauseFunc, seq uint64, src string, done chan struct{}) {
	defer close(done)
	defer cancel(nil)

	ctx := cycle
	if s.timeout > 0 {
		var stop context.CancelFunc
		ctx, stop = context.WithTimeout(cycle, s.timeout)
		defer stop()
	}
	doc, err := s.renderer.Render(ctx, src)

	s.mu.Lock()
	defer s.mu.Unlock()
	if context.Cause(cycle) != nil {
		return
	}
	if err != nil {
		s.view = View{Seq: seq, State: StateFailed, Error: err.Error()}
		return
	}
	s.view = View{Seq: seq, State: StateRendered, HTML: doc.HTML}
}

// View returns the currently displayed view.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Await blocks until t settles or ctx is done, then returns the displayed
// view. The view belongs to a later cycle when t was superseded.
func (s *Session) Await(ctx context.Context, t Ticket) (View, error) {
	select {
	case <-t.Done:
		return s.View(), nil
	case <-ctx.Done():
		return s.View(), ctx.Err()
	}
}

// Close tears the session down. Cycles still in flight are discarded.
func (s *Session) Close() {
	s.close(ErrClosed)
}
