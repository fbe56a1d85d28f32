package kernel

import "errors"

// ErrAlreadyRunning is returned by Run when another Run loop already holds
// the runtime.
var ErrAlreadyRunning = errors.New("runtime already running")
