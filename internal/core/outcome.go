package core

import "errors"

// Outcome classifies the result of a lifecycle operation for the command layer
type Outcome int

const (
	OutcomeSuccess       Outcome = iota
	OutcomeBadPassphrase         // Wrong passphrase or tampered archive
	OutcomeToolFailure           // Archiver or cipher could not do its job
	OutcomeIOError               // Filesystem or anything else
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeBadPassphrase:
		return "bad passphrase"
	case OutcomeToolFailure:
		return "tool failure"
	default:
		return "io error"
	}
}

// OutcomeOf maps an error returned by Vault to an Outcome
func OutcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrWrongPassword):
		return OutcomeBadPassphrase
	case errors.Is(err, ErrArchiveFailed), errors.Is(err, ErrCipherFailed):
		return OutcomeToolFailure
	default:
		return OutcomeIOError
	}
}
