package calce2e

import (
	"context"

	"github.com/go-rod/calce2e/lib/input"
)

// Backend opens browser pages. Each Open must start a dedicated browser process,
// pages are never shared between sessions.
type Backend interface {
	// Open a fresh browser bound to a single blank page.
	// When no compatible browser can be resolved the error must have the code ErrEnvironmentUnavailable.
	Open(ctx context.Context, headless bool) (Surface, error)
}

// Surface is the page of a session as the Driver sees it. Selectors are css selectors.
// Lookups poll until ctx is done, then fail with ErrElementNotFound.
// Calls after Close fail with ErrSessionClosed.
type Surface interface {
	// Navigate loads the url and waits for the load event, on ctx deadline it fails with ErrTimeout
	Navigate(ctx context.Context, url string) error

	// Click scrolls the first matched element into view and clicks its center
	Click(ctx context.Context, selector string) error

	// Focus the first matched element
	Focus(ctx context.Context, selector string) error

	// Press a key on the focused element
	Press(ctx context.Context, key input.Key) error

	// Value of the first matched element, the textContent is used if the element has no value
	Value(ctx context.Context, selector string) (string, error)

	// Close the page and its browser process, it's safe to call it multiple times
	Close() error
}
