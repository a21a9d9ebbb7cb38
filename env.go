package payout

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Environment is the boundary to whatever actually holds the funds being
// distributed. The ledger never owns funds: it reads the held balance
// through Balance and requests outbound payments through Transfer.
type Environment interface {
	// Balance returns the funds currently held and not yet released.
	Balance(ctx context.Context) (*uint256.Int, error)

	// Transfer moves funds out of the account to the given recipient.
	// A non-nil error means no funds moved.
	Transfer(ctx context.Context, to common.Address, amount *uint256.Int) error
}

// MemAccount is an in-memory Environment for tests and examples. It holds a
// single balance, records every outgoing payment per recipient, and can be
// primed to fail the next transfer.
type MemAccount struct {
	mu       sync.Mutex
	balance  *uint256.Int
	paid     map[common.Address]*uint256.Int
	failNext error
}

// NewMemAccount creates an empty in-memory account.
func NewMemAccount() *MemAccount {
	return &MemAccount{
		balance: uint256.NewInt(0),
		paid:    make(map[common.Address]*uint256.Int),
	}
}

// Deposit adds funds to the held balance.
func (a *MemAccount) Deposit(amount *uint256.Int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	sum := new(uint256.Int)
	if _, overflow := sum.AddOverflow(a.balance, amount); overflow {
		return &AmountOverflowError{Op: "deposit"}
	}
	a.balance = sum
	return nil
}

// Balance implements Environment.
func (a *MemAccount) Balance(ctx context.Context) (*uint256.Int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balance.Clone(), nil
}

// Transfer implements Environment. It debits the held balance and records
// the payment, or fails with ErrInsufficientBalance without moving anything.
func (a *MemAccount) Transfer(ctx context.Context, to common.Address, amount *uint256.Int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.failNext != nil {
		err := a.failNext
		a.failNext = nil
		return err
	}
	if a.balance.Lt(amount) {
		return ErrInsufficientBalance
	}

	a.balance = new(uint256.Int).Sub(a.balance, amount)

	prev, ok := a.paid[to]
	if !ok {
		prev = uint256.NewInt(0)
	}
	a.paid[to] = new(uint256.Int).Add(prev, amount)
	return nil
}

// PaidTo returns the cumulative amount transferred to the given recipient.
func (a *MemAccount) PaidTo(to common.Address) *uint256.Int {
	a.mu.Lock()
	defer a.mu.Unlock()

	if amount, ok := a.paid[to]; ok {
		return amount.Clone()
	}
	return uint256.NewInt(0)
}

// FailNext primes the account so the next Transfer fails with err without
// moving funds. The failure is one-shot.
func (a *MemAccount) FailNext(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failNext = err
}
