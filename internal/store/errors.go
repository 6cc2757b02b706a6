package store

import (
	"fmt"

	domainerrors "github.com/rizwanabrish101/shayari/internal/errors"
)

// Storage failures are reported as domain errors so callers and the API
// layer match them with errors.Is and need no separate status mapping.
var (
	ErrNotFound      = domainerrors.ErrNotFound
	ErrAlreadyExists = domainerrors.ErrConflict
	ErrInvalidInput  = domainerrors.ErrValidation
)

func notFound(prefix, id string) error {
	return domainerrors.NotFoundf("%s%s not found", prefix, id)
}

func alreadyExists(prefix, id string) error {
	return &domainerrors.Error{Code: domainerrors.CodeConflict, Message: fmt.Sprintf("%s%s already exists", prefix, id)}
}

// InvalidInput reports a rejected argument, e.g. an empty key.
func InvalidInput(msg string) error {
	return domainerrors.Validation(msg)
}
