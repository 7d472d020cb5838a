package turn

import (
	"sync"
	"testing"
	"time"
)

// testConfigs shrinks the timing table so the state machine can be
// exercised with real timers.
func testConfigs(t InputType) BufferConfig {
	switch t {
	case InputPhone:
		return BufferConfig{Debounce: 30 * time.Millisecond, MaxWait: 200 * time.Millisecond, IgnoreUtteranceEnd: true}
	case InputName:
		return BufferConfig{Debounce: 30 * time.Millisecond, MaxWait: 200 * time.Millisecond, IgnoreUtteranceEnd: false}
	default:
		return BufferConfig{Debounce: 20 * time.Millisecond, MaxWait: 100 * time.Millisecond, IgnoreUtteranceEnd: false}
	}
}

type flushRecorder struct {
	mu     sync.Mutex
	events []FlushEvent
	ch     chan FlushEvent
}

func newFlushRecorder() *flushRecorder {
	return &flushRecorder{ch: make(chan FlushEvent, 8)}
}

func (r *flushRecorder) record(ev FlushEvent) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	r.ch <- ev
}

func (r *flushRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func (r *flushRecorder) wait(t *testing.T, d time.Duration) FlushEvent {
	t.Helper()
	select {
	case ev := <-r.ch:
		return ev
	case <-time.After(d):
		t.Fatalf("no flush within %v", d)
		return FlushEvent{}
	}
}

func newTestBuffer(rec *flushRecorder) *Buffer {
	b := NewBuffer(rec.record)
	b.Configs = testConfigs
	b.cfg = testConfigs(InputGeneral)
	return b
}

func TestGeneralFlushesOnDebounce(t *testing.T) {
	rec := newFlushRecorder()
	b := newTestBuffer(rec)
	defer b.Close()

	b.AddFragment("I'd like to book a service")

	ev := rec.wait(t, 80*time.Millisecond)
	if ev.Reason != FlushDebounce {
		t.Fatalf("reason = %q, want %q", ev.Reason, FlushDebounce)
	}
	if ev.Text != "I'd like to book a service" {
		t.Fatalf("text = %q", ev.Text)
	}
	if ev.InputType != InputGeneral {
		t.Fatalf("input type = %q, want general", ev.InputType)
	}
}

func TestPhoneHoldsUntilCeilingOnIncompleteDigits(t *testing.T) {
	rec := newFlushRecorder()
	b := newTestBuffer(rec)
	defer b.Close()

	b.SetExpectedInput(InputPhone)
	b.AddFragment("oh four one two three four five") // 7 digits

	// Several debounce windows pass without a flush.
	time.Sleep(120 * time.Millisecond)
	if rec.count() != 0 {
		t.Fatalf("flushed before ceiling despite incomplete digits")
	}

	ev := rec.wait(t, 200*time.Millisecond)
	if ev.Reason != FlushCeiling {
		t.Fatalf("reason = %q, want %q", ev.Reason, FlushCeiling)
	}
}

func TestPhoneFlushesOnceDigitsComplete(t *testing.T) {
	rec := newFlushRecorder()
	b := newTestBuffer(rec)
	defer b.Close()

	b.SetExpectedInput(InputPhone)
	b.AddFragment("oh four one two three four five")
	time.Sleep(60 * time.Millisecond)
	b.AddFragment("six") // 8th digit

	ev := rec.wait(t, 100*time.Millisecond)
	if ev.Reason != FlushDebounce {
		t.Fatalf("reason = %q, want %q", ev.Reason, FlushDebounce)
	}
	if ev.Text != "oh four one two three four five six" {
		t.Fatalf("text = %q", ev.Text)
	}
}

func TestDebounceRearmsOnFragments(t *testing.T) {
	rec := newFlushRecorder()
	b := newTestBuffer(rec)
	defer b.Close()

	// Keep feeding fragments faster than the debounce; no flush until quiet.
	b.AddFragment("one")
	for i := 0; i < 4; i++ {
		time.Sleep(10 * time.Millisecond)
		b.AddFragment("more")
	}
	if rec.count() != 0 {
		t.Fatalf("flushed while fragments kept arriving")
	}

	ev := rec.wait(t, 80*time.Millisecond)
	if ev.Text != "one more more more more" {
		t.Fatalf("text = %q", ev.Text)
	}
}

func TestUtteranceEndFlushesWhenComplete(t *testing.T) {
	rec := newFlushRecorder()
	b := newTestBuffer(rec)
	defer b.Close()

	b.SetExpectedInput(InputName)
	b.AddFragment("Jane Doe")
	b.UtteranceEnd()

	ev := rec.wait(t, 50*time.Millisecond)
	if ev.Reason != FlushUtteranceEnd {
		t.Fatalf("reason = %q, want %q", ev.Reason, FlushUtteranceEnd)
	}
}

func TestUtteranceEndIgnoredForPhone(t *testing.T) {
	rec := newFlushRecorder()
	b := newTestBuffer(rec)
	defer b.Close()

	b.SetExpectedInput(InputPhone)
	b.AddFragment("zero four one two three four five six") // complete
	b.UtteranceEnd()

	// Must wait for debounce instead of flushing on the signal.
	ev := rec.wait(t, 100*time.Millisecond)
	if ev.Reason != FlushDebounce {
		t.Fatalf("reason = %q, want %q", ev.Reason, FlushDebounce)
	}
}

func TestUtteranceEndIncompleteDoesNothing(t *testing.T) {
	rec := newFlushRecorder()
	b := newTestBuffer(rec)
	defer b.Close()

	b.SetExpectedInput(InputName)
	b.AddFragment("Jane")
	b.UtteranceEnd()

	time.Sleep(20 * time.Millisecond)
	if rec.count() != 0 {
		t.Fatalf("flushed on utterance end despite incomplete name")
	}
}

func TestPartialReplacedNotAppended(t *testing.T) {
	rec := newFlushRecorder()
	b := newTestBuffer(rec)
	defer b.Close()

	// Streaming recognizers revise interim text in place; the buffer must
	// not stack revisions.
	b.UpdatePartial("I'd")
	b.UpdatePartial("I'd like")
	b.UpdatePartial("I'd like to book")
	b.AddFragment("I'd like to book a service")

	ev := rec.wait(t, 80*time.Millisecond)
	if ev.Text != "I'd like to book a service" {
		t.Fatalf("text = %q", ev.Text)
	}
}

func TestPartialAloneStillFlushes(t *testing.T) {
	rec := newFlushRecorder()
	b := newTestBuffer(rec)
	defer b.Close()

	b.UpdatePartial("just a partial")

	ev := rec.wait(t, 80*time.Millisecond)
	if ev.Text != "just a partial" {
		t.Fatalf("text = %q", ev.Text)
	}
}

func TestCloseCancelsTimers(t *testing.T) {
	rec := newFlushRecorder()
	b := newTestBuffer(rec)

	b.AddFragment("about to hang up")
	b.Close()

	time.Sleep(150 * time.Millisecond)
	if rec.count() != 0 {
		t.Fatalf("timer fired into closed buffer")
	}

	// Intake after close is a no-op.
	b.AddFragment("late fragment")
	b.UtteranceEnd()
	time.Sleep(50 * time.Millisecond)
	if rec.count() != 0 {
		t.Fatalf("closed buffer accepted input")
	}
}

func TestFlushReturnsToIdleForNextTurn(t *testing.T) {
	rec := newFlushRecorder()
	b := newTestBuffer(rec)
	defer b.Close()

	b.AddFragment("first turn")
	first := rec.wait(t, 100*time.Millisecond)

	b.AddFragment("second turn")
	second := rec.wait(t, 100*time.Millisecond)

	if first.Text != "first turn" || second.Text != "second turn" {
		t.Fatalf("turns not isolated: %q / %q", first.Text, second.Text)
	}
}
