package compress

import "errors"

// ErrMalformedHeader is returned when a compressed block's frequency
// table header is internally inconsistent (claims more unique bytes
// than the input can supply, or is truncated).
var ErrMalformedHeader = errors.New("malformed header")
