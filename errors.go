package flipdot

import (
	"errors"
	"fmt"

	"github.com/alusch/flipdot/core"
)

// SignError represents a failed interaction with a specific sign.
type SignError struct {
	Address core.Address // Address of the sign
	Op      string       // Operation that failed (e.g., "configure", "send pages")
	Err     error        // Underlying error
}

func (e *SignError) Error() string {
	return fmt.Sprintf("sign %04X: %s failed: %v", uint16(e.Address), e.Op, e.Err)
}

func (e *SignError) Unwrap() error {
	return e.Err
}

// GetSignError extracts a SignError from an error chain, if present.
func GetSignError(err error) (*SignError, bool) {
	var signErr *SignError
	if errors.As(err, &signErr) {
		return signErr, true
	}
	return nil, false
}
