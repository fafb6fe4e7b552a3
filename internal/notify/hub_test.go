package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu       sync.Mutex
	updated  []Updated
	failed   []Failed
	progress []Progress
	err      error
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Updated(u Updated) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updated = append(s.updated, u)
	return s.err
}

func (s *recordingSink) Failed(f Failed) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed = append(s.failed, f)
	return s.err
}

func (s *recordingSink) Progressed(p Progress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress = append(s.progress, p)
	return s.err
}

func TestHub_DeliversToEverySink(t *testing.T) {
	a := &recordingSink{}
	b := &recordingSink{err: errors.New("unreachable")}
	h := NewHub(a, b)

	h.Updated(Updated{Entity: 1, To: "2.0"})
	h.Failed(Failed{Entity: 2, Message: "boom"})
	h.Progressed(Progress{Entity: 1, Current: 5, Total: 10})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, h.Run(ctx))

	for _, s := range []*recordingSink{a, b} {
		require.Len(t, s.updated, 1)
		assert.Equal(t, "2.0", s.updated[0].To)
		require.Len(t, s.failed, 1)
		require.Len(t, s.progress, 1)
	}
}

func TestHub_DropsAfterClose(t *testing.T) {
	s := &recordingSink{}
	h := NewHub(s)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = h.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}

	h.Updated(Updated{Entity: 1})
	assert.Empty(t, s.updated)
}

func TestNop(t *testing.T) {
	var o Observer = Nop{}
	o.Updated(Updated{})
	o.Failed(Failed{})
	o.Progressed(Progress{})
}
