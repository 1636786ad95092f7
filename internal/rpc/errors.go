package rpc

import "errors"

// ErrShutdown is returned for calls made on, or interrupted by, a closed
// transport.
var ErrShutdown = errors.New("rpc: transport is shut down")
