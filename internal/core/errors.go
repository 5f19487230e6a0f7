package core

import "errors"

// ErrAnchorMismatch signals that the reconstructed ending quantity for
// "today" does not equal the authoritative balance. By construction the two
// must agree, so a mismatch means the balance moved underneath the run (a
// concurrent write or clock skew). The run is abandoned; the caller should
// re-fetch the balance and retry.
var ErrAnchorMismatch = errors.New("projection anchor does not match current balance")
