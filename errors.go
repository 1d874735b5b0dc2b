package x64

import (
	"tlog.app/go/errors"
)

// ErrUnknownLabel is wrapped and returned by ApplyRelocations/LinkTo when a
// relocation names a label id that was never created.
var ErrUnknownLabel = errors.New("unknown label")

// ErrDisplacementOverflow is wrapped and returned by ApplyRelocations/LinkTo
// when a relative displacement does not fit in a signed 32-bit integer.
// The distilled encoding rules only ever emit rel32 forms, so this can only
// happen when a label ends up more than +-2GiB from its reference.
var ErrDisplacementOverflow = errors.New("relative displacement overflows 32 bits")
