package ir

import "tlog.app/go/errors"

// ErrMalformedFunction is wrapped and returned by Analyse when a Function's
// opcodes reference an out-of-range jump target or variable/argument index.
var ErrMalformedFunction = errors.New("malformed function")
