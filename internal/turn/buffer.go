package turn

import (
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// State of the buffer for one turn.
type State int

const (
	StateIdle State = iota
	StateAccumulating
	StateFlushing
)

// FlushReason records which event delimited the turn.
type FlushReason string

const (
	FlushDebounce     FlushReason = "debounce"
	FlushCeiling      FlushReason = "ceiling"
	FlushUtteranceEnd FlushReason = "utterance_end"
)

// FlushEvent is the finalized turn handed downstream.
type FlushEvent struct {
	Text      string
	InputType InputType
	Reason    FlushReason
}

// Buffer accumulates transcript fragments for one call and decides the
// moment to flush a finalized turn. Two timers run per turn: a debounce
// timer rearmed on every fragment, and a ceiling timer armed once at the
// first fragment and never rearmed. If the debounce fires while the
// category's validator still reports incomplete, the debounce is rearmed
// instead of flushing; the ceiling bounds how long that can go on.
//
// Fragment intake, the utterance-end signal, and timer callbacks are all
// serialized on an internal mutex; a turn generation counter makes timer
// fires for a superseded or closed turn no-ops.
type Buffer struct {
	// OnFlush receives the finalized turn. Invoked on its own goroutine so
	// the callback may safely call back into the buffer.
	OnFlush func(FlushEvent)

	// Configs resolves the per-category policy. Defaults to ConfigFor.
	Configs func(InputType) BufferConfig

	Logger *logrus.Entry

	mu        sync.Mutex
	state     State
	inputType InputType
	cfg       BufferConfig
	parts     []string
	pending   string // interim fragment, replaced as the recognizer revises it
	gen       uint64
	closed    bool

	debounce *time.Timer
	ceiling  *time.Timer
}

func NewBuffer(onFlush func(FlushEvent)) *Buffer {
	return &Buffer{
		OnFlush:   onFlush,
		Configs:   ConfigFor,
		Logger:    logrus.NewEntry(logrus.New()),
		inputType: InputGeneral,
		cfg:       ConfigFor(InputGeneral),
	}
}

// SetExpectedInput is called whenever the assistant produces a new
// utterance; the next caller turn is buffered under the new category's
// policy. A turn already accumulating keeps its armed ceiling.
func (b *Buffer) SetExpectedInput(t InputType) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.inputType = t
	b.cfg = b.Configs(t)
}

// ExpectedInput returns the category the next turn is buffered under.
func (b *Buffer) ExpectedInput() InputType {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.inputType
}

// AddFragment appends a partial or final transcript fragment and rearms the
// debounce timer. The first fragment of a turn also arms the ceiling.
func (b *Buffer) AddFragment(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}

	b.parts = append(b.parts, text)
	b.pending = ""
	b.beginTurnLocked()
	b.armDebounceLocked()
}

// UpdatePartial records an interim fragment. Interim text replaces the
// previous interim (streaming recognizers revise in place) but still counts
// as caller activity: the debounce rearms, and the first activity of a turn
// arms the ceiling.
func (b *Buffer) UpdatePartial(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}

	b.pending = text
	b.beginTurnLocked()
	b.armDebounceLocked()
}

func (b *Buffer) beginTurnLocked() {
	if b.state != StateIdle {
		return
	}
	b.state = StateAccumulating
	gen := b.gen
	b.ceiling = time.AfterFunc(b.cfg.MaxWait, func() { b.ceilingFired(gen) })
}

// UtteranceEnd handles the recognizer's end-of-utterance signal. Categories
// configured to ignore it see no effect; otherwise the turn flushes
// immediately when the validator already reports complete.
func (b *Buffer) UtteranceEnd() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed || b.state != StateAccumulating || b.cfg.IgnoreUtteranceEnd {
		return
	}
	if ValidateInput(b.inputType, b.textLocked()).Complete {
		b.flushLocked(FlushUtteranceEnd)
	}
}

// Close cancels both timers and discards any buffered text. Timer fires
// after Close are no-ops. Safe to call more than once.
func (b *Buffer) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	b.gen++
	b.stopTimersLocked()
	b.parts = nil
	b.pending = ""
	b.state = StateIdle
}

func (b *Buffer) armDebounceLocked() {
	if b.debounce != nil {
		b.debounce.Stop()
	}
	gen := b.gen
	b.debounce = time.AfterFunc(b.cfg.Debounce, func() { b.debounceFired(gen) })
}

func (b *Buffer) debounceFired(gen uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed || gen != b.gen || b.state != StateAccumulating {
		return
	}

	v := ValidateInput(b.inputType, b.textLocked())
	if !v.Complete {
		// Caller is likely mid-answer (pausing between digit bursts or
		// address lines). Hold on; the ceiling still bounds the turn.
		b.Logger.WithFields(logrus.Fields{
			"input_type": b.inputType,
			"reason":     v.Reason,
		}).Debug("debounce elapsed on incomplete input, extending")
		b.armDebounceLocked()
		return
	}
	b.flushLocked(FlushDebounce)
}

func (b *Buffer) ceilingFired(gen uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed || gen != b.gen || b.state != StateAccumulating {
		return
	}
	b.flushLocked(FlushCeiling)
}

// flushLocked hands the accumulated text downstream and returns to idle.
func (b *Buffer) flushLocked(reason FlushReason) {
	b.state = StateFlushing
	b.gen++
	b.stopTimersLocked()

	ev := FlushEvent{
		Text:      b.textLocked(),
		InputType: b.inputType,
		Reason:    reason,
	}
	b.parts = nil
	b.pending = ""
	b.state = StateIdle

	if b.OnFlush != nil && ev.Text != "" {
		go b.OnFlush(ev)
	}
}

func (b *Buffer) stopTimersLocked() {
	if b.debounce != nil {
		b.debounce.Stop()
		b.debounce = nil
	}
	if b.ceiling != nil {
		b.ceiling.Stop()
		b.ceiling = nil
	}
}

func (b *Buffer) textLocked() string {
	if b.pending == "" {
		return strings.Join(b.parts, " ")
	}
	return strings.Join(append(append([]string{}, b.parts...), b.pending), " ")
}
