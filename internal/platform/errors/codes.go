// Package errors provides coded ledger errors with gRPC status mapping.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Accounting errors
	CodeInsufficientBalance   Code = "INSUFFICIENT_BALANCE"
	CodeInsufficientAllowance Code = "INSUFFICIENT_ALLOWANCE"
	CodeAllowanceUnderflow    Code = "ALLOWANCE_UNDERFLOW"
	CodeInvalidAmount         Code = "INVALID_AMOUNT"
	CodeAmountOverflow        Code = "AMOUNT_OVERFLOW"

	// Role errors
	CodeNotOwner       Code = "NOT_OWNER"
	CodeNotCandidate   Code = "NOT_CANDIDATE"
	CodeNoPendingClaim Code = "NO_PENDING_CLAIM"
	CodeNotMinter      Code = "NOT_MINTER"
	CodeNotAuthority   Code = "NOT_AUTHORITY"
	CodeNotHolder      Code = "NOT_HOLDER"

	// Lifecycle errors
	CodeContractPaused  Code = "CONTRACT_PAUSED"
	CodeAlreadyInState  Code = "ALREADY_IN_STATE"
	CodeLedgerDelegated Code = "LEDGER_DELEGATED"
	CodeLedgerHalted    Code = "LEDGER_HALTED"

	// Compliance errors
	CodeNotEligible Code = "NOT_ELIGIBLE"

	// Supply and fee errors
	CodeSupplyCeilingExceeded Code = "SUPPLY_CEILING_EXCEEDED"
	CodeFeeExceedsAmount      Code = "FEE_EXCEEDS_AMOUNT"

	// Migration errors
	CodeSuccessorNotApproved     Code = "SUCCESSOR_NOT_APPROVED"
	CodePartialMigrationDisabled Code = "PARTIAL_MIGRATION_DISABLED"

	// Request and storage errors
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeNotFound        Code = "NOT_FOUND"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - malformed input
	case CodeInvalidAmount,
		CodeAmountOverflow,
		CodeFeeExceedsAmount,
		CodeInvalidArgument:
		return codes.InvalidArgument

	// PermissionDenied - caller lacks the role
	case CodeNotOwner,
		CodeNotCandidate,
		CodeNotMinter,
		CodeNotAuthority,
		CodeNotHolder,
		CodeNotEligible:
		return codes.PermissionDenied

	// FailedPrecondition - state doesn't allow operation
	case CodeInsufficientBalance,
		CodeInsufficientAllowance,
		CodeAllowanceUnderflow,
		CodeNoPendingClaim,
		CodeContractPaused,
		CodeAlreadyInState,
		CodeLedgerDelegated,
		CodeSupplyCeilingExceeded,
		CodeSuccessorNotApproved,
		CodePartialMigrationDisabled:
		return codes.FailedPrecondition

	case CodeUnauthenticated:
		return codes.Unauthenticated

	// Unavailable - journal fault, nothing commits until restart
	case CodeLedgerHalted:
		return codes.Unavailable

	case CodeNotFound:
		return codes.NotFound

	default:
		return codes.Internal
	}
}
