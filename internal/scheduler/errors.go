package scheduler

import "errors"

// ErrInvalidQuality is returned by callers that validate a rating before
// handing it to Review. Check with errors.Is.
var ErrInvalidQuality = errors.New("scheduler: quality rating must be between 1 and 5")
