package effect

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/noeta/NAR/errors"
	"github.com/noeta/NAR/nal/task"
	"github.com/noeta/NAR/nal/term"
	"github.com/noeta/NAR/nal/truth"
)

func resultTask(t *testing.T, f *term.Factory, name string) *task.Task {
	t.Helper()
	a, err := f.Atom(name)
	require.NoError(t, err)
	v := truth.Default()
	return &task.Task{
		Term:        a,
		Punctuation: task.Judgment,
		Truth:       &v,
		Budget:      task.DefaultBudget(task.Judgment, &v),
		Stamp:       task.NewStamp(99),
	}
}

func TestResultsReachSink(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := term.NewFactory()
	d := NewDispatcher(Options{Workers: 2, QueueSize: 8}, zap.NewNop().Sugar())

	var mu sync.Mutex
	var received []*task.Task
	done := make(chan struct{})
	d.SetSink(func(tk *task.Task) {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, tk)
		if len(received) == 3 {
			close(done)
		}
	})
	d.Register("light", func(ctx context.Context, r Request) (*task.Task, error) {
		return resultTask(t, f, "lit"), nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	for i := 0; i < 3; i++ {
		require.NoError(t, d.Submit(Request{Handler: "light"}))
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("results never reached the sink")
	}
	cancel()
	d.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, received, 3)
	for _, tk := range received {
		assert.True(t, tk.IsJudgment())
	}
}

func TestFullQueueRejectsWithoutBlocking(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 1}, zap.NewNop().Sugar())
	// Never started: the queue only drains if workers run.

	require.NoError(t, d.Submit(Request{Handler: "x"}))
	err := d.Submit(Request{Handler: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrQueueFull))
}

func TestSubmitAssignsRequestID(t *testing.T) {
	defer goleak.VerifyNone(t)

	d := NewDispatcher(Options{Workers: 1, QueueSize: 4}, zap.NewNop().Sugar())
	ids := make(chan string, 1)
	d.Register("probe", func(ctx context.Context, r Request) (*task.Task, error) {
		ids <- r.ID
		return nil, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)
	require.NoError(t, d.Submit(Request{Handler: "probe"}))

	select {
	case id := <-ids:
		assert.NotEmpty(t, id)
	case <-time.After(2 * time.Second):
		t.Fatal("handler never ran")
	}
	cancel()
	d.Wait()
}

func TestHandlerErrorsAndPanicsAreIsolated(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := term.NewFactory()
	d := NewDispatcher(Options{Workers: 1, QueueSize: 8}, zap.NewNop().Sugar())

	got := make(chan *task.Task, 1)
	d.SetSink(func(tk *task.Task) { got <- tk })
	d.Register("boom", func(ctx context.Context, r Request) (*task.Task, error) {
		panic("defective handler")
	})
	d.Register("fail", func(ctx context.Context, r Request) (*task.Task, error) {
		return nil, errors.New("transient")
	})
	d.Register("ok", func(ctx context.Context, r Request) (*task.Task, error) {
		return resultTask(t, f, "fine"), nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	require.NoError(t, d.Submit(Request{Handler: "boom"}))
	require.NoError(t, d.Submit(Request{Handler: "fail"}))
	require.NoError(t, d.Submit(Request{Handler: "ok"}))

	select {
	case tk := <-got:
		assert.Equal(t, "fine", tk.Term.Name)
	case <-time.After(2 * time.Second):
		t.Fatal("pool died before the healthy request ran")
	}
	cancel()
	d.Wait()
}

func TestCancellationStopsWorkers(t *testing.T) {
	defer goleak.VerifyNone(t)

	d := NewDispatcher(Options{Workers: 3, QueueSize: 4}, zap.NewNop().Sugar())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)
	cancel()
	d.Wait()
}

func TestUnknownHandlerIsDropped(t *testing.T) {
	defer goleak.VerifyNone(t)

	d := NewDispatcher(Options{Workers: 1, QueueSize: 4}, zap.NewNop().Sugar())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	require.NoError(t, d.Submit(Request{Handler: "nobody-home"}))
	assert.False(t, d.HasHandler("nobody-home"))

	time.Sleep(50 * time.Millisecond)
	cancel()
	d.Wait()
}
