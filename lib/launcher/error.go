package launcher

import "errors"

// ErrAlreadyLaunched is an error that indicates the launcher has already been launched.
var ErrAlreadyLaunched = errors.New("already launched")

// ErrBrowserNotFound means neither the pinned browser nor a system browser is usable
var ErrBrowserNotFound = errors.New("no usable browser found")

// ErrLaunchTimeout means the browser didn't print its control url before the launch deadline
var ErrLaunchTimeout = errors.New("browser launch timeout")

// ErrBrowserExited means the browser process exited before it's ready
var ErrBrowserExited = errors.New("browser exited before it's ready")
