package calce2e

import (
	"context"

	"github.com/go-rod/calce2e/lib/input"
)

// Press the key on the focused element
func (p *page) Press(ctx context.Context, key input.Key) error {
	for _, e := range input.Encode(key) {
		_, err := p.call(ctx, "Input.dispatchKeyEvent", e)
		if err != nil {
			return err
		}
	}
	return nil
}
