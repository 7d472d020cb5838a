package tts

import "context"

type Provider interface {
	// Synthesize converts reply text to raw mu-law 8 kHz audio with no
	// container framing, ready to be cut into transport frames. Errors are
	// retryable; callers decide whether to retry or fall back.
	Synthesize(ctx context.Context, text string) ([]byte, error)
	Close() error
}
