package llm

import "context"

type Provider interface {
	// StreamAnswer returns a stream of reply text chunks (incremental).
	StreamAnswer(ctx context.Context, prompt string) (chunks <-chan string, errs <-chan error)

	// ExtractJSON runs a single structured-output request and returns the
	// raw JSON document the model produced.
	ExtractJSON(ctx context.Context, prompt string) (string, error)

	Close() error
}
