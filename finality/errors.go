package finality

import "errors"

// ErrInvalidRFTT is returned by NewDetector when rFTT is not strictly
// between 0 and 0.5. It is a precondition violation: construction fails
// loudly and is not recoverable (spec §7).
var ErrInvalidRFTT = errors.New("rFTT must be in the open interval (0, 0.5)")
