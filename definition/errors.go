package definition

import "errors"

// ErrParse wraps a malformed definition file error. The loader logs
// and skips the offending file rather than propagating the error to
// the facade.
var ErrParse = errors.New("definition: parse error")
