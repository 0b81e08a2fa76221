// Package latency wraps a bound ActionSet so every call records its
// wall-clock duration without changing the action's observable behavior.
package latency

import (
	"sync"
	"time"

	"github.com/pholbrook/statebench/internal/adapter"
)

// Recorder accumulates per-call latencies, in milliseconds, in call order.
// One recorder serves one benchmark run at a time; the runner resets it
// between iterations.
type Recorder struct {
	mu      sync.Mutex
	samples []float64
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Record appends one latency sample.
func (r *Recorder) Record(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = append(r.samples, float64(d)/float64(time.Millisecond))
}

// Samples returns a copy of the recorded series in call order.
func (r *Recorder) Samples() []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]float64, len(r.samples))
	copy(out, r.samples)
	return out
}

// Reset discards all samples.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = r.samples[:0]
}

// Wrap returns a new ActionSet in which every non-nil action is replaced
// by a timed equivalent. Return errors pass through unchanged, and the
// latency up to the failure point is recorded even when the action fails.
func Wrap(set adapter.ActionSet, rec *Recorder) adapter.ActionSet {
	return adapter.ActionSet{
		AddComment:        wrap3(rec, set.AddComment),
		UpdateCommentText: wrap2(rec, set.UpdateCommentText),
		ToggleCardTag:     wrap2(rec, set.ToggleCardTag),
		SetCardsBusy:      wrap2(rec, set.SetCardsBusy),
		RenameUser:        wrap2(rec, set.RenameUser),
		SetDeckCollapsed:  wrap2(rec, set.SetDeckCollapsed),
		MoveCard:          wrap2(rec, set.MoveCard),
	}
}

func wrap2[A, B any](rec *Recorder, fn func(A, B) error) func(A, B) error {
	if fn == nil {
		return nil
	}
	return func(a A, b B) error {
		start := time.Now()
		err := fn(a, b)
		rec.Record(time.Since(start))
		return err
	}
}

func wrap3[A, B, C any](rec *Recorder, fn func(A, B, C) error) func(A, B, C) error {
	if fn == nil {
		return nil
	}
	return func(a A, b B, c C) error {
		start := time.Now()
		err := fn(a, b, c)
		rec.Record(time.Since(start))
		return err
	}
}
