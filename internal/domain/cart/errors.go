package cart

import (
	"fmt"

	"github.com/go-faster/errors"
)

var (
	// ErrSlotEmpty is returned by a Store when nothing has been saved under
	// the requested key.
	ErrSlotEmpty = errors.New("cart slot is empty")
	// ErrCorruptDocument is returned by Decode when the persisted document
	// cannot be read back into a cart.
	ErrCorruptDocument = errors.New("corrupt cart document")
)

// ValidationError is returned when a cart operation is called with input that
// violates its precondition. The cart is left untouched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func corrupt(format string, args ...any) error {
	return errors.Wrapf(ErrCorruptDocument, format, args...)
}

func corruptWrap(err error, msg string) error {
	return errors.Wrap(ErrCorruptDocument, msg+": "+err.Error())
}
