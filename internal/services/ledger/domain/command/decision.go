package command

import (
	"errors"

	apperrors "github.com/louisbranch/goldtoken/internal/platform/errors"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/event"
)

// Decision represents the pure outcome of handling a command.
type Decision struct {
	Events     []event.Event
	Rejections []Rejection
}

// Rejection captures a domain-level reason a command was declined.
type Rejection struct {
	Code     apperrors.Code
	Message  string
	Metadata map[string]string
}

// Accept returns a decision that emits the provided events.
func Accept(events ...event.Event) Decision {
	return Decision{Events: append([]event.Event(nil), events...)}
}

// Reject returns a decision that carries the provided rejections.
func Reject(rejections ...Rejection) Decision {
	return Decision{Rejections: append([]Rejection(nil), rejections...)}
}

// RejectErr converts a coded domain error into a rejection. Uncoded errors
// are rejected as INVALID_ARGUMENT.
func RejectErr(err error) Decision {
	var domainErr *apperrors.Error
	if errors.As(err, &domainErr) {
		return Reject(Rejection{Code: domainErr.Code, Message: domainErr.Message, Metadata: domainErr.Metadata})
	}
	return Reject(Rejection{Code: apperrors.CodeInvalidArgument, Message: err.Error()})
}

// Rejected reports whether the decision declined the command.
func (d Decision) Rejected() bool {
	return len(d.Rejections) > 0
}

// Err returns the first rejection as a coded error, or nil.
func (d Decision) Err() error {
	if len(d.Rejections) == 0 {
		return nil
	}
	first := d.Rejections[0]
	return apperrors.WithMetadata(first.Code, first.Message, first.Metadata)
}
