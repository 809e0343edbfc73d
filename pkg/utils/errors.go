package utils

import (
	"fmt"
)

// WrapError builds an error that wraps err with an additional detail message,
// preserving err for errors.Is/errors.As.
func WrapError(err error, detailsBody string, args ...any) error {
	return fmt.Errorf("%w: "+detailsBody, append([]any{err}, args...)...)
}
