package core

import "strconv"

// ErrorCode int
type ErrorCode int

const (
	// ErrUnknown unknown
	ErrUnknown ErrorCode = 100000
	// ErrOperationForbidden operation forbidden
	ErrOperationForbidden ErrorCode = 100001
	// ErrInvalidAmount invalid amount
	ErrInvalidAmount ErrorCode = 100002

	// authorization failures: reject the whole operation, no retry

	// ErrNotAuthorized wrong signer
	ErrNotAuthorized ErrorCode = 100100
	// ErrWrongOwner caller is not the record owner
	ErrWrongOwner ErrorCode = 100101
	// ErrRecordMismatch record reference or kind does not match
	ErrRecordMismatch ErrorCode = 100102
	// ErrOpenOrdersMismatch supplied open-orders record is not the one pinned to the account
	ErrOpenOrdersMismatch ErrorCode = 100103
	// ErrGroupMismatch account belongs to a different group
	ErrGroupMismatch ErrorCode = 100104

	// arithmetic failures: fatal, never clamped

	// ErrMathFault overflow, underflow or bad division in ledger arithmetic
	ErrMathFault ErrorCode = 100200

	// invariant violations: a bug, not user error

	// ErrInvariantViolated pool solvency or another internal invariant broken
	ErrInvariantViolated ErrorCode = 100300
	// ErrIndexNotMonotonic index refresh asked to move backwards in time
	ErrIndexNotMonotonic ErrorCode = 100301

	// policy rejections: expected, user facing, no partial state change

	// ErrInsufficientCollateral collateral ratio below the required floor
	ErrInsufficientCollateral ErrorCode = 100400
	// ErrBorrowCeilingExceeded borrow would exceed the asset ceiling
	ErrBorrowCeilingExceeded ErrorCode = 100401
	// ErrInsufficientBalance not enough native deposit to withdraw
	ErrInsufficientBalance ErrorCode = 100402
	// ErrReduceOnlyViolated new debt in reduce-only mode
	ErrReduceOnlyViolated ErrorCode = 100403
	// ErrNotLiquidatable account is at or above the maintenance ratio
	ErrNotLiquidatable ErrorCode = 100404
	// ErrLiquidationIncomplete liquidator deposits did not restore initial health
	ErrLiquidationIncomplete ErrorCode = 100405
	// ErrInsufficientLiquidity pool deposits cannot cover pool borrows
	ErrInsufficientLiquidity ErrorCode = 100406
	// ErrAssetNotFound no such asset in the group
	ErrAssetNotFound ErrorCode = 100407
	// ErrMarketNotFound no such market in the group
	ErrMarketNotFound ErrorCode = 100408
	// ErrInvalidPrice oracle feed rejected
	ErrInvalidPrice ErrorCode = 100409
)

func (e ErrorCode) String() string {
	return strconv.Itoa(int(e))
}

func (e ErrorCode) Error() string {
	return e.String()
}
