//go:build !windows

package launcher

import (
	"os"
	"sync"

	"github.com/ramr/go-reaper"
)

var reaperOnce sync.Once

// runReaper only acts when the harness is the init process of a container,
// otherwise it would steal the exit status from exec.Cmd.Wait.
func runReaper() {
	if os.Getpid() != 1 {
		return
	}

	reaperOnce.Do(func() {
		go reaper.Reap()
	})
}
