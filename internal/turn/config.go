package turn

import "time"

// BufferConfig is the per-category timing policy for the adaptive buffer.
// Structured answers are read out in bursts with pauses, so they get longer
// windows and ignore the recognizer's utterance-end signal; free-form
// conversation flushes fast to stay responsive.
type BufferConfig struct {
	// Debounce is the quiet period after the last fragment before a flush.
	// Rearmed on every fragment.
	Debounce time.Duration

	// MaxWait is the hard ceiling for one turn, armed at the first fragment
	// and never rearmed.
	MaxWait time.Duration

	// IgnoreUtteranceEnd drops the recognizer's end-of-utterance signal for
	// categories where callers pause mid-answer.
	IgnoreUtteranceEnd bool
}

// ConfigFor returns the timing policy for a category. Adding a category
// means adding a case here; the default only covers InputGeneral semantics.
func ConfigFor(t InputType) BufferConfig {
	switch t {
	case InputPhone:
		return BufferConfig{Debounce: 2 * time.Second, MaxWait: 12 * time.Second, IgnoreUtteranceEnd: true}
	case InputEmail:
		return BufferConfig{Debounce: 1500 * time.Millisecond, MaxWait: 8 * time.Second, IgnoreUtteranceEnd: true}
	case InputName:
		return BufferConfig{Debounce: 800 * time.Millisecond, MaxWait: 4 * time.Second, IgnoreUtteranceEnd: false}
	case InputAddress:
		return BufferConfig{Debounce: 1500 * time.Millisecond, MaxWait: 8 * time.Second, IgnoreUtteranceEnd: true}
	case InputDateTime:
		return BufferConfig{Debounce: time.Second, MaxWait: 5 * time.Second, IgnoreUtteranceEnd: false}
	default: // InputGeneral
		return BufferConfig{Debounce: 400 * time.Millisecond, MaxWait: 2 * time.Second, IgnoreUtteranceEnd: false}
	}
}
