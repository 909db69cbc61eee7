// Package defaults holds some commonly used options parsed from env var "calce2e".
// Set them will set the default value of options used by the harness.
// Each value is separated by a ",", key and value are separated by "=",
// For example:
//
//	calce2e=show,trace,timeout=10s,launch-timeout=2m
//
//	calce2e=show,bin=/usr/bin/chromium,url=http://127.0.0.1:8000,backend=playwright,workers=2
package defaults

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-rod/calce2e/lib/utils"
)

// Show disables headless mode
var Show bool

// Trace enables the harness log of the sessions and of each driver step
var Trace bool

// CDP enables the log of the raw devtools protocol traffic
var CDP bool

// Bin is the default of launcher.Launcher.Bin
var Bin string

// Dir is the default of launcher.Browser.Dir, where the pinned browser is cached
var Dir string

// Revision is the default of launcher.Browser.Revision, zero means launcher.DefaultRevision
var Revision int

// URL of the calculator under test
var URL string

// Timeout bounds every page load and element wait
var Timeout time.Duration

// LaunchTimeout bounds the acquisition of a session, including the browser resolution and launch
var LaunchTimeout time.Duration

// Backend is the name of the automation backend, "cdp" or "playwright"
var Backend string

// Workers is the number of scenarios that can run at the same time
var Workers int

// Parse the flags
func init() {
	ResetWithEnv()
}

// Reset all flags to their init values.
func Reset() {
	Show = false
	Trace = false
	CDP = false
	Bin = ""
	Dir = ""
	Revision = 0
	URL = "http://localhost:8000"
	Timeout = 5 * time.Second
	LaunchTimeout = time.Minute
	Backend = "cdp"
	Workers = 1
}

// ResetWithEnv all flags by the value of the calce2e env var.
func ResetWithEnv() {
	Reset()
	parse(os.Getenv("calce2e"))
}

// parse options and set them globally
func parse(options string) {
	if options == "" {
		return
	}

	for _, f := range strings.Split(options, ",") {
		kv := strings.SplitN(f, "=", 2)
		rule, has := rules[kv[0]]
		if !has {
			panic("no such calce2e option: " + kv[0])
		}
		if len(kv) == 2 {
			rule(kv[1])
		} else {
			rule("")
		}
	}
}

var rules = map[string]func(string){
	"show": func(string) {
		Show = true
	},
	"trace": func(string) {
		Trace = true
	},
	"cdp": func(string) {
		CDP = true
	},
	"bin": func(v string) {
		Bin = v
	},
	"dir": func(v string) {
		Dir = v
	},
	"revision": func(v string) {
		var err error
		Revision, err = strconv.Atoi(v)
		utils.E(err)
	},
	"url": func(v string) {
		URL = v
	},
	"timeout": func(v string) {
		var err error
		Timeout, err = time.ParseDuration(v)
		utils.E(err)
	},
	"launch-timeout": func(v string) {
		var err error
		LaunchTimeout, err = time.ParseDuration(v)
		utils.E(err)
	},
	"backend": func(v string) {
		Backend = v
	},
	"workers": func(v string) {
		var err error
		Workers, err = strconv.Atoi(v)
		utils.E(err)
	},
}
