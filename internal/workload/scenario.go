package workload

import (
	"fmt"
	"strings"
	"time"
)

// Name identifies one scenario in the fixed catalogue. Scenarios are
// deterministic parameterizable procedures, not an open plugin system.
type Name string

const (
	// BackgroundChurn models sustained write pressure: a bulk busy-flag
	// sweep over a bounded card window on a timer.
	BackgroundChurn Name = "background-churn"

	// InlineEditing models high-frequency single-entity writes: a burst
	// of sequential text edits against one comment.
	InlineEditing Name = "inline-editing"

	// BulkUpdate models batch multi-entity writes: rounds of tag toggles
	// across rotating card subsets.
	BulkUpdate Name = "bulk-update"

	// FanOutUpdate renames a heavily assigned user so one write
	// invalidates many dependent views.
	FanOutUpdate Name = "fan-out-update"

	// Scroll toggles deck visibility across the window, as scrolling
	// would.
	Scroll Name = "scroll"

	// ColdStart measures store construction and first full read pass.
	ColdStart Name = "cold-start"
)

// Names returns the catalogue in presentation order.
func Names() []string {
	return []string{
		string(BackgroundChurn),
		string(InlineEditing),
		string(BulkUpdate),
		string(FanOutUpdate),
		string(Scroll),
		string(ColdStart),
	}
}

// Parse resolves a scenario name, erroring with the valid options.
func Parse(s string) (Name, error) {
	for _, n := range Names() {
		if n == s {
			return Name(s), nil
		}
	}
	return "", fmt.Errorf("unknown scenario %q: valid scenarios are %s",
		s, strings.Join(Names(), ", "))
}

// Options parameterize a scenario. Unset fields fall back to fixed
// per-scenario defaults; fields a scenario does not document are ignored.
type Options struct {
	// TargetID pins the target entity (comment for inline-editing, user
	// for fan-out-update). Empty selects the deterministic default.
	TargetID string `yaml:"targetId"`

	// Duration bounds timer-driven scenarios (background-churn).
	Duration time.Duration `yaml:"duration"`

	// Interval is the tick period of background-churn.
	Interval time.Duration `yaml:"interval"`

	// Repeat is the iteration count for scroll and fan-out-update.
	Repeat int `yaml:"repeat"`

	// WindowSize bounds the entity window (cards for churn and
	// bulk-update, decks for scroll).
	WindowSize int `yaml:"windowSize"`

	// EditCount and KeystrokeGap shape inline-editing.
	EditCount    int           `yaml:"editCount"`
	KeystrokeGap time.Duration `yaml:"keystrokeGap"`

	// Rounds and BatchSize shape bulk-update.
	Rounds    int `yaml:"rounds"`
	BatchSize int `yaml:"batchSize"`
}

// WithDefaults fills unset fields with the scenario's fixed defaults.
func (o Options) WithDefaults(name Name) Options {
	switch name {
	case BackgroundChurn:
		if o.Duration <= 0 {
			o.Duration = time.Second
		}
		if o.Interval <= 0 {
			o.Interval = time.Second
		}
		if o.WindowSize <= 0 {
			o.WindowSize = 10
		}
	case InlineEditing:
		if o.EditCount <= 0 {
			o.EditCount = 20
		}
		if o.KeystrokeGap <= 0 {
			o.KeystrokeGap = 16 * time.Millisecond
		}
	case BulkUpdate:
		if o.Rounds <= 0 {
			o.Rounds = 5
		}
		if o.BatchSize <= 0 {
			o.BatchSize = 10
		}
		if o.WindowSize <= 0 {
			o.WindowSize = 20
		}
	case FanOutUpdate:
		if o.Repeat <= 0 {
			o.Repeat = 5
		}
	case Scroll:
		if o.Repeat <= 0 {
			o.Repeat = 3
		}
		if o.WindowSize <= 0 {
			o.WindowSize = 5
		}
	}
	return o
}

// SyntheticDelay reports the scenario's own deliberate wait time under
// the given options. The runner subtracts it from measured execution
// time so results reflect adapter cost, not scaffolding sleeps. Each
// scenario owns this number; the runner holds no name-keyed table.
func SyntheticDelay(name Name, opts Options) time.Duration {
	opts = opts.WithDefaults(name)
	switch name {
	case BackgroundChurn:
		// The run occupies the full duration window by construction.
		return opts.Duration
	case InlineEditing:
		return time.Duration(opts.EditCount) * opts.KeystrokeGap
	default:
		return 0
	}
}
