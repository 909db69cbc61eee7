package calce2e

import (
	"context"

	"github.com/go-rod/calce2e/lib/input"
)

// clickAt the point of the viewport with the left button
func (p *page) clickAt(ctx context.Context, x, y float64) error {
	for _, e := range input.Click(x, y) {
		_, err := p.call(ctx, "Input.dispatchMouseEvent", e)
		if err != nil {
			return err
		}
	}
	return nil
}
