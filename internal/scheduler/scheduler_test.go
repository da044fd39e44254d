package scheduler

import (
	"context"
	"io"
	"sync/atomic"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/sirupsen/logrus"

	"github.com/kmalyshev/pricetrack/internal/reconcile"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type countingSweeper struct {
	runs atomic.Int32
}

func (s *countingSweeper) RunSweep(ctx context.Context) (*reconcile.Report, error) {
	s.runs.Add(1)
	return &reconcile.Report{}, nil
}

func TestRunDisabledWithoutInterval(t *testing.T) {
	c := qt.New(t)

	s := &countingSweeper{}
	Run(context.Background(), s, Config{Interval: 0}, testLogger())
	c.Assert(s.runs.Load(), qt.Equals, int32(0))
}

func TestRunSweepsImmediatelyAndStopsOnCancel(t *testing.T) {
	c := qt.New(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	s := &countingSweeper{}
	done := make(chan struct{})
	go func() {
		Run(ctx, s, Config{Interval: time.Hour}, testLogger())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		c.Fatal("scheduler did not stop on context cancellation")
	}
	// The long interval never ticks, so only the immediate first sweep ran.
	c.Assert(s.runs.Load(), qt.Equals, int32(1))
}
