package items

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgumentType means an image source did not carry the payload
	// its mode requires.
	ErrInvalidArgumentType = errors.New("invalid argument type")

	// ErrUnexpectedValue means an image mode outside the known set.
	ErrUnexpectedValue = errors.New("unexpected value")

	// ErrDoesNotExist matches any *DoesNotExistError.
	ErrDoesNotExist = errors.New("does not exist")
)

// DoesNotExistError reports an enchantment ID with no backing record.
type DoesNotExistError struct {
	ID int64
}

func (e *DoesNotExistError) Error() string {
	return fmt.Sprintf("enchantment %d does not exist", e.ID)
}

// Is lets errors.Is(err, ErrDoesNotExist) match.
func (e *DoesNotExistError) Is(target error) bool {
	return target == ErrDoesNotExist
}
