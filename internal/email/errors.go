package email

import (
	"errors"
	"fmt"
)

var (
	// ErrNoRecipient is returned when a message has no To address.
	ErrNoRecipient = errors.New("email has no recipient")

	// ErrNilMessage is returned when Send is called without a message.
	ErrNilMessage = errors.New("email message is nil")
)

// DispatchError reports a failed delivery through a named provider.
type DispatchError struct {
	Provider string
	Err      error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}
