package ai

import (
	"encoding/json"
	"fmt"
)

// ErrInvalidResponse indicates the judge returned content that does not conform to the judgment schema.
type ErrInvalidResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid judge response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrJudgeUnavailable indicates the provider could not be reached or refused the request.
type ErrJudgeUnavailable struct {
	Provider string
	Err      error
}

func (e *ErrJudgeUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s judge unavailable: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("%s judge unavailable", e.Provider)
}

func (e *ErrJudgeUnavailable) Unwrap() error { return e.Err }
