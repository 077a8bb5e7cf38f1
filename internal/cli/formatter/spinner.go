package formatter

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
)

// Spinner animates a message on one terminal line while a slow call runs.
type Spinner struct {
	out     io.Writer
	message string
	kind    spinner.Spinner

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func NewSpinner(out io.Writer, message string) *Spinner {
	return &Spinner{out: out, message: message, kind: spinner.MiniDot}
}

// Start begins the animation in a goroutine. Call Stop to end it.
func (s *Spinner) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(ctx)
}

func (s *Spinner) run(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.kind.FPS)
	defer ticker.Stop()

	for i := 0; ; i++ {
		frame := s.kind.Frames[i%len(s.kind.Frames)]
		fmt.Fprintf(s.out, "\r  %s %s", StylePurple.Render(frame), Dim(s.message))
		select {
		case <-ctx.Done():
			fmt.Fprint(s.out, "\r\033[K")
			return
		case <-ticker.C:
		}
	}
}

// Stop ends the animation and clears the line. Later calls do nothing.
func (s *Spinner) Stop() {
	s.once.Do(func() {
		if s.cancel == nil {
			return
		}
		s.cancel()
		<-s.done
	})
}

// StartSpinner starts a spinner on out when enabled and returns its stop
// function. Disabled spinners print nothing.
func StartSpinner(out io.Writer, message string, enabled bool) func() {
	if !enabled {
		return func() {}
	}
	s := NewSpinner(out, message)
	s.Start()
	return s.Stop
}
