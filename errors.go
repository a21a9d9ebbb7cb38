// Package payout provides proportional payment splitting for EVM-style
// accounts.
package payout

import (
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Sentinel errors for common failure conditions.
var (
	// ErrInvalidConfig is the category for all construction failures.
	// Every construction error unwraps to it.
	ErrInvalidConfig = errors.New("payout: invalid configuration")

	// ErrNoPayees indicates an empty payee list was given at construction.
	ErrNoPayees = fmt.Errorf("%w: at least one payee is required", ErrInvalidConfig)

	// ErrNilEnvironment indicates construction without an account environment.
	ErrNilEnvironment = fmt.Errorf("%w: nil environment", ErrInvalidConfig)

	// ErrNothingDue indicates a release was requested with no funds owed.
	ErrNothingDue = errors.New("payout: no funds are due")

	// ErrBalanceRegressed indicates the account balance fell below what the
	// booked releases imply, i.e. funds left the account outside the ledger.
	ErrBalanceRegressed = errors.New("payout: account balance regressed below booked releases")

	// ErrInsufficientBalance indicates a transfer exceeding the held balance.
	ErrInsufficientBalance = errors.New("payout: insufficient balance")

	// ErrInsufficientAllowance indicates a delegated transfer exceeding the
	// spender's approved allowance.
	ErrInsufficientAllowance = errors.New("payout: insufficient allowance")

	// ErrZeroAddress indicates the zero address where a real account is required.
	ErrZeroAddress = errors.New("payout: zero address")
)

// LengthMismatchError indicates the account and share lists differ in length.
type LengthMismatchError struct {
	Accounts int
	Shares   int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("payout: account and share lists differ in length: %d accounts, %d shares", e.Accounts, e.Shares)
}

func (e *LengthMismatchError) Unwrap() error {
	return ErrInvalidConfig
}

// ZeroSharesError indicates a payee was configured with zero shares.
type ZeroSharesError struct {
	Account common.Address
	Index   int
}

func (e *ZeroSharesError) Error() string {
	return fmt.Sprintf("payout: zero shares for payee %s at index %d", e.Account.Hex(), e.Index)
}

func (e *ZeroSharesError) Unwrap() error {
	return ErrInvalidConfig
}

// DuplicatePayeeError indicates the same account appears twice in the payee list.
type DuplicatePayeeError struct {
	Account common.Address
	Index   int
}

func (e *DuplicatePayeeError) Error() string {
	return fmt.Sprintf("payout: duplicate payee %s at index %d", e.Account.Hex(), e.Index)
}

func (e *DuplicatePayeeError) Unwrap() error {
	return ErrInvalidConfig
}

// NonPositiveDurationError indicates a vesting schedule with no length.
type NonPositiveDurationError struct {
	Duration time.Duration
}

func (e *NonPositiveDurationError) Error() string {
	return fmt.Sprintf("payout: vesting duration must be positive, got %s", e.Duration)
}

func (e *NonPositiveDurationError) Unwrap() error {
	return ErrInvalidConfig
}

// UnknownPayeeError indicates the account is not in the payee table.
type UnknownPayeeError struct {
	Account common.Address
}

func (e *UnknownPayeeError) Error() string {
	return fmt.Sprintf("payout: unknown payee %s", e.Account.Hex())
}

// TransferError indicates the environment failed to move funds out. The
// ledger is unchanged when it is returned.
type TransferError struct {
	To     common.Address
	Amount *uint256.Int
	Err    error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("payout: transfer of %s to %s failed: %v", e.Amount.Dec(), e.To.Hex(), e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// AmountOverflowError indicates an amount computation exceeded 256 bits.
type AmountOverflowError struct {
	Op string
}

func (e *AmountOverflowError) Error() string {
	return fmt.Sprintf("payout: amount overflow computing %s", e.Op)
}
