// The get-browser command downloads the pinned browser into the cache,
// so that the first scenario of a CI run doesn't pay for it. It prints the path of the executable.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-rod/calce2e/lib/launcher"
	"github.com/go-rod/calce2e/lib/utils"
)

func main() {
	b := launcher.NewBrowser()
	b.Logger = utils.NewLogger("[get-browser] ")

	p, err := b.Get()
	if errors.Is(err, launcher.ErrBrowserNotFound) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	utils.E(err)

	fmt.Println(p)
}
