// Package workload translates named scenarios into deterministic
// sequences of action calls against whichever adapter is active.
package workload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pholbrook/statebench/internal/adapter"
	"github.com/pholbrook/statebench/internal/model"
	"github.com/pholbrook/statebench/internal/render"
	"github.com/pholbrook/statebench/internal/view"
)

// Driver executes scenarios against one bound action set.
//
// Run is cooperatively cancellable: Stop cancels the scenario's context,
// which is checked between steps and tied to every timer the scenario
// registers, so cleanup is guaranteed on cancellation or completion.
// After Stop the driver is reusable; starting a new run while a prior
// timer-driven scenario is still active cancels the predecessor first.
type Driver struct {
	// Reg is the active adapter registration; cold-start uses it to
	// construct fresh stores.
	Reg adapter.Registration

	// Actions is the (typically latency-wrapped) mutation surface.
	Actions adapter.ActionSet

	// Hooks is the read surface used for target selection.
	Hooks adapter.Hooks

	// Initial is the seed dataset; static pools (tags) come from here.
	Initial *model.RootState

	// Counter receives render attribution for cold-start mounts.
	Counter *render.Counter

	// Logger may be nil.
	Logger *slog.Logger

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// Run executes one scenario. It returns nil when the scenario completes
// or is stopped cooperatively; a real failure (unknown scenario, missing
// target, action error) is returned as-is.
func (d *Driver) Run(ctx context.Context, name Name, opts Options, runNum int) error {
	opts = opts.WithDefaults(name)

	d.mu.Lock()
	if d.cancel != nil {
		// A prior timer-driven run is still active: clear it before
		// starting a second mutation stream.
		d.cancel()
	}
	runCtx, cancel := context.WithCancel(ctx)
	d.gen++
	gen := d.gen
	d.cancel = cancel
	d.mu.Unlock()

	defer func() {
		cancel()
		d.mu.Lock()
		// A preempted run exits after its successor has installed a new
		// cancel func; only the run that still owns the slot clears it,
		// otherwise Stop would go dead for the successor.
		if d.gen == gen {
			d.cancel = nil
		}
		d.mu.Unlock()
	}()

	if d.Logger != nil {
		d.Logger.Debug("scenario starting",
			slog.String("scenario", string(name)),
			slog.Int("run", runNum),
		)
	}

	var err error
	switch name {
	case BackgroundChurn:
		err = d.runBackgroundChurn(runCtx, opts)
	case InlineEditing:
		err = d.runInlineEditing(runCtx, opts)
	case BulkUpdate:
		err = d.runBulkUpdate(runCtx, opts, runNum)
	case FanOutUpdate:
		err = d.runFanOut(runCtx, opts, runNum)
	case Scroll:
		err = d.runScroll(runCtx, opts)
	case ColdStart:
		err = d.runColdStart(runCtx)
	default:
		return fmt.Errorf("unknown scenario %q: valid scenarios are %s",
			name, fmt.Sprint(Names()))
	}

	// A cooperative Stop surfaces as context.Canceled on the run
	// context while the caller's context is still live.
	if errors.Is(err, context.Canceled) && ctx.Err() == nil {
		return nil
	}
	return err
}

// Stop cancels the in-flight scenario, if any. Safe to call repeatedly.
func (d *Driver) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		d.cancel()
	}
}

func (d *Driver) runBackgroundChurn(ctx context.Context, opts Options) error {
	window := d.cardWindow(opts.WindowSize)
	if len(window) == 0 {
		return fmt.Errorf("background-churn: no cards in dataset")
	}

	churn := func() error {
		if err := d.Actions.SetCardsBusy(window, true); err != nil {
			return err
		}
		return d.Actions.SetCardsBusy(window, false)
	}

	// First tick fires immediately; subsequent ticks on the interval.
	if err := churn(); err != nil {
		return err
	}

	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()
	deadline := time.NewTimer(opts.Duration)
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return nil
		case <-ticker.C:
			if err := churn(); err != nil {
				return err
			}
		}
	}
}

func (d *Driver) runInlineEditing(ctx context.Context, opts Options) error {
	target := opts.TargetID
	if target == "" {
		target = d.firstCommentID()
	}
	if target == "" {
		return fmt.Errorf("inline-editing: no comment exists in the dataset")
	}

	for i := 0; i < opts.EditCount; i++ {
		payload := fmt.Sprintf("keystroke burst %03d", i)
		if err := d.Actions.UpdateCommentText(target, payload); err != nil {
			return fmt.Errorf("inline-editing: edit %d: %w", i, err)
		}
		if err := sleep(ctx, opts.KeystrokeGap); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) runBulkUpdate(ctx context.Context, opts Options, runNum int) error {
	pool := d.cardWindow(opts.WindowSize)
	if len(pool) == 0 {
		return fmt.Errorf("bulk-update: no cards in dataset")
	}
	tags := d.tagPool()
	if len(tags) == 0 {
		return fmt.Errorf("bulk-update: no tags in dataset")
	}

	for round := 0; round < opts.Rounds; round++ {
		for j := 0; j < opts.BatchSize; j++ {
			i := round*opts.BatchSize + j
			cardID := pool[i%len(pool)]
			tagID := tags[(i*2+runNum*3)%len(tags)]
			if err := d.Actions.ToggleCardTag(cardID, tagID); err != nil {
				return fmt.Errorf("bulk-update: round %d: %w", round, err)
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) runFanOut(ctx context.Context, opts Options, runNum int) error {
	target := opts.TargetID
	if target == "" {
		target = d.mostAssignedUser()
	}
	if target == "" {
		return fmt.Errorf("fan-out-update: no assigned user in dataset")
	}

	for i := 0; i < opts.Repeat; i++ {
		name := fmt.Sprintf("Renamed %d-%d", runNum, i)
		if err := d.Actions.RenameUser(target, name); err != nil {
			return fmt.Errorf("fan-out-update: rename %d: %w", i, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) runScroll(ctx context.Context, opts Options) error {
	order := d.Hooks.DeckOrder()
	if len(order) > opts.WindowSize {
		order = order[:opts.WindowSize]
	}
	if len(order) == 0 {
		return fmt.Errorf("scroll: no decks in dataset")
	}

	for i := 0; i < opts.Repeat; i++ {
		for _, deckID := range order {
			if err := d.Actions.SetDeckCollapsed(deckID, true); err != nil {
				return fmt.Errorf("scroll: %w", err)
			}
			if err := d.Actions.SetDeckCollapsed(deckID, false); err != nil {
				return fmt.Errorf("scroll: %w", err)
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

// runColdStart constructs a fresh store and mounts the view window over
// it, so the measured cost is time-to-interactive: store construction
// plus the first full read pass.
func (d *Driver) runColdStart(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h, err := d.Reg.Adapter.NewStore(d.Initial)
	if err != nil {
		return fmt.Errorf("cold-start: %w", err)
	}
	tree := view.Mount(h, d.Reg.PerKey, d.Counter, view.Config{})
	tree.Unmount()
	return h.Close()
}

// cardWindow returns the first n card ids walking decks in order.
func (d *Driver) cardWindow(n int) []string {
	out := make([]string, 0, n)
	for _, deckID := range d.Hooks.DeckOrder() {
		for _, cardID := range d.Hooks.CardIDsByDeck(deckID) {
			out = append(out, cardID)
			if len(out) == n {
				return out
			}
		}
	}
	return out
}

// firstCommentID returns the first comment reachable in deck order.
func (d *Driver) firstCommentID() string {
	for _, deckID := range d.Hooks.DeckOrder() {
		for _, cardID := range d.Hooks.CardIDsByDeck(deckID) {
			if ids := d.Hooks.CommentIDsByCard(cardID); len(ids) > 0 {
				return ids[0]
			}
		}
	}
	return ""
}

// mostAssignedUser returns the user with the most card assignments,
// smallest id winning ties.
func (d *Driver) mostAssignedUser() string {
	counts := make(map[string]int)
	for _, a := range d.Initial.CardAssignments {
		counts[a.UserID]++
	}
	best, bestCount := "", 0
	for userID, n := range counts {
		if n > bestCount || (n == bestCount && (best == "" || userID < best)) {
			best, bestCount = userID, n
		}
	}
	return best
}

// tagPool returns the static tag catalogue in stable order.
func (d *Driver) tagPool() []string {
	ids := make([]string, 0, len(d.Initial.Tags))
	for id := range d.Initial.Tags {
		ids = append(ids, id)
	}
	adapter.SortIDs(ids)
	return ids
}

func sleep(ctx context.Context, dur time.Duration) error {
	t := time.NewTimer(dur)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
