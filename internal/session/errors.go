package session

import (
	"errors"
	"fmt"
)

var (
	// ErrDeclined is returned when the user answers no to a confirmation.
	ErrDeclined = errors.New("cancelled")
	// ErrNoThread is returned when an action needs a thread and none is open.
	ErrNoThread = errors.New("no thread selected")
	// ErrMessageNotReady is returned when branching from a message the
	// server has not confirmed yet.
	ErrMessageNotReady = errors.New("message is not saved yet")
	// ErrEmptyTitle is returned for blank renames.
	ErrEmptyTitle = errors.New("title cannot be empty")
)

// ConfirmationError reports that the server did not confirm a delete or
// rename. Local state is left as it was.
type ConfirmationError struct {
	Action   string
	ThreadID string
	Err      error
}

func (e *ConfirmationError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Action, e.ThreadID, e.Err)
}

func (e *ConfirmationError) Unwrap() error {
	return e.Err
}

// Confirmer asks the user a yes/no question.
type Confirmer func(prompt string) (bool, error)

// AlwaysConfirm answers yes without asking.
func AlwaysConfirm(string) (bool, error) {
	return true, nil
}

func confirm(c Confirmer, prompt string) error {
	if c == nil {
		return ErrDeclined
	}
	ok, err := c(prompt)
	if err != nil {
		return err
	}
	if !ok {
		return ErrDeclined
	}
	return nil
}
