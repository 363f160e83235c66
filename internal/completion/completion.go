// Package completion defines the contract every streaming language-model
// backend must satisfy, plus the error taxonomy callers use to tell a
// user-initiated cancel apart from a real transport failure.
package completion

import (
	"context"
	"errors"
	"fmt"

	"github.com/teuglobal/htspilot/internal/domain"
)

// ErrCancelled marks a stream that stopped because the caller's context was
// cancelled. Chunks delivered before the cancel remain valid.
var ErrCancelled = errors.New("completion cancelled")

// TransportError is a network or service-level failure during a completion
// call. Message is the human-readable explanation extracted from the
// service's error body when one was available.
type TransportError struct {
	StatusCode int
	Message    string
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("completion service error [%d]: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("completion service error: %s", e.Message)
}

// Request is one completion call. Image is optional and only meaningful for
// classification queries.
type Request struct {
	Prompt      string
	Image       *domain.Image
	Temperature float32
}

// ChunkFunc receives each decoded text fragment as it arrives. Fragments are
// delivered exactly once, in arrival order; their boundaries are a transport
// artifact and carry no meaning.
type ChunkFunc func(text string)

// Streamer is a streaming completion backend. Stream returns the full
// response text, which is always the exact concatenation of every fragment
// passed to onChunk (onChunk may be nil for one-shot calls). A cancelled
// context yields an error satisfying errors.Is(err, ErrCancelled); other
// failures yield a *TransportError. An empty string with a nil error is a
// valid, if unusual, result.
type Streamer interface {
	Stream(ctx context.Context, req Request, onChunk ChunkFunc) (string, error)
}

// CancelOrTransport maps a low-level failure to the package taxonomy: if ctx
// was cancelled the result wraps ErrCancelled, otherwise err is wrapped in a
// TransportError.
func CancelOrTransport(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
	}
	var t *TransportError
	if errors.As(err, &t) {
		return err
	}
	return &TransportError{Message: err.Error()}
}
