package calce2e

import (
	"context"
	"time"

	"github.com/go-rod/calce2e/lib/defaults"
	"github.com/go-rod/calce2e/lib/input"
)

// Driver issues user interactions to the calculator of a session, in the order they are called.
// Each call is bounded by its own Timeout.
type Driver struct {
	Timeout time.Duration

	session *Session
}

// NewDriver for the session
func NewDriver(s *Session) *Driver {
	return &Driver{
		Timeout: defaults.Timeout,
		session: s,
	}
}

// Click the control
func (d *Driver) Click(ctx context.Context, s Selector) error {
	return d.do(ctx, "click "+s.String(), func(ctx context.Context, surface Surface) error {
		return surface.Click(ctx, s.CSS())
	})
}

// Type the text into the display, key by key
func (d *Driver) Type(ctx context.Context, text string) error {
	keys, err := input.Keys(text)
	if err != nil {
		return err
	}

	return d.do(ctx, "type "+text, func(ctx context.Context, surface Surface) error {
		err := surface.Focus(ctx, Display.CSS())
		if err != nil {
			return err
		}
		for _, k := range keys {
			err = surface.Press(ctx, k)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// SendKey presses the key on the display, such as input.Backspace or input.Enter
func (d *Driver) SendKey(ctx context.Context, key input.Key) error {
	return d.do(ctx, "key "+key.Name(), func(ctx context.Context, surface Surface) error {
		err := surface.Focus(ctx, Display.CSS())
		if err != nil {
			return err
		}
		return surface.Press(ctx, key)
	})
}

// ReadDisplay returns the text the display currently shows
func (d *Driver) ReadDisplay(ctx context.Context) (string, error) {
	var text string
	err := d.do(ctx, "read display", func(ctx context.Context, surface Surface) error {
		var err error
		text, err = surface.Value(ctx, Display.CSS())
		return err
	})
	return text, err
}

// ExpectDisplay fails with ErrAssertionMismatch if the display doesn't show exactly the want
func (d *Driver) ExpectDisplay(ctx context.Context, want string) error {
	got, err := d.ReadDisplay(ctx)
	if err != nil {
		return err
	}

	if got != want {
		return &Error{Code: ErrAssertionMismatch, Details: &Mismatch{Want: want, Got: got}}
	}
	return nil
}

// do the step on the surface, the step is logged with the session id
func (d *Driver) do(ctx context.Context, step string, fn func(context.Context, Surface) error) error {
	surface, err := d.session.use()
	if err != nil {
		return err
	}

	d.session.manager.logger().Println(d.session.ID, step)

	timeout := d.Timeout
	if timeout <= 0 {
		timeout = defaults.Timeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return fn(ctx, surface)
}
