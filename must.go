// This file contains the methods that panics when error return value is not nil.
// Their function names are all prefixed with Must.
// A function here is usually a wrapper for the error version with fixed default options to make it easier to use.

package calce2e

import (
	"context"

	"github.com/go-rod/calce2e/lib/input"
	"github.com/go-rod/calce2e/lib/utils"
)

// MustAcquire is similar to Manager.Acquire
func (m *Manager) MustAcquire(headless bool) *Session {
	s, err := m.Acquire(context.Background(), headless)
	utils.E(err)
	return s
}

// MustNavigate is similar to Session.Navigate, the page load is bounded by the driver timeout
func (d *Driver) MustNavigate(url string) *Driver {
	ctx, cancel := context.WithTimeout(context.Background(), d.Timeout)
	defer cancel()
	utils.E(d.session.Navigate(ctx, url))
	return d
}

// MustClick is similar to Driver.Click
func (d *Driver) MustClick(s Selector) *Driver {
	utils.E(d.Click(context.Background(), s))
	return d
}

// MustType is similar to Driver.Type
func (d *Driver) MustType(text string) *Driver {
	utils.E(d.Type(context.Background(), text))
	return d
}

// MustSendKey is similar to Driver.SendKey
func (d *Driver) MustSendKey(key input.Key) *Driver {
	utils.E(d.SendKey(context.Background(), key))
	return d
}

// MustReadDisplay is similar to Driver.ReadDisplay
func (d *Driver) MustReadDisplay() string {
	text, err := d.ReadDisplay(context.Background())
	utils.E(err)
	return text
}

// MustExpectDisplay is similar to Driver.ExpectDisplay
func (d *Driver) MustExpectDisplay(want string) *Driver {
	utils.E(d.ExpectDisplay(context.Background(), want))
	return d
}
