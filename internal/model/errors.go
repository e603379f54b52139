package model

import "errors"

// Fatal error classes. Everything else in the pipeline degrades gracefully
// and is surfaced through the bundle's exclusion and degradation lists.
var (
	// ErrConfiguration means the pipeline cannot start (missing credentials
	// or invalid config).
	ErrConfiguration = errors.New("configuration error")

	// ErrParse means no drug/indication intent could be extracted from the
	// query; the run aborts before any source is queried.
	ErrParse = errors.New("intent parse error")
)

// IsFatal reports whether err must abort the run
func IsFatal(err error) bool {
	return errors.Is(err, ErrConfiguration) || errors.Is(err, ErrParse)
}
