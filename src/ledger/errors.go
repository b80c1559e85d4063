package ledger

import (
	"errors"
	"fmt"

	"github.com/rewindnet/rewind/src/frame"
)

// IntegrityError reports that two fingerprints recorded for the same frame
// disagree. It means the simulations have diverged and rollback can no longer
// reconcile them; callers must treat it as fatal and halt the session.
type IntegrityError struct {
	Ledger string
	Frame  frame.Frame
	Have   uint16
	Got    uint16
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s ledger: conflicting fingerprints for frame %d: have 0x%04X, got 0x%04X",
		e.Ledger, e.Frame, e.Have, e.Got)
}

// IsIntegrity returns true if err is, or wraps, an IntegrityError.
func IsIntegrity(err error) bool {
	var ie *IntegrityError
	return errors.As(err, &ie)
}
