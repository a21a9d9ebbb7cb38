package payout

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Splitter divides everything a shared account receives among a fixed set
// of payees in proportion to their shares. The payee table is immutable
// after construction; release bookkeeping grows monotonically.
//
// All operations serialize on an internal lock, so a release runs to
// completion (balance read, computation, transfer, commit) before the next
// one begins.
type Splitter struct {
	mu sync.Mutex

	env      Environment
	payees   []common.Address
	shares   map[common.Address]uint64
	released map[common.Address]*uint256.Int

	totalShares   *uint256.Int
	totalReleased *uint256.Int

	logger *slog.Logger
}

// NewSplitter validates the payee table and builds a ledger over env.
// Accounts and shares are parallel lists: shares[i] is the weight of
// accounts[i]. Construction fails when the lists differ in length, are
// empty, contain a zero share count, or repeat an account.
func NewSplitter(env Environment, accounts []common.Address, shares []uint64, opts ...Option) (*Splitter, error) {
	cfg := defaultSettings()
	for _, opt := range opts {
		opt(cfg)
	}

	if env == nil {
		return nil, ErrNilEnvironment
	}
	if len(accounts) != len(shares) {
		return nil, &LengthMismatchError{Accounts: len(accounts), Shares: len(shares)}
	}
	if len(accounts) == 0 {
		return nil, ErrNoPayees
	}

	s := &Splitter{
		env:           env,
		payees:        make([]common.Address, 0, len(accounts)),
		shares:        make(map[common.Address]uint64, len(accounts)),
		released:      make(map[common.Address]*uint256.Int, len(accounts)),
		totalShares:   uint256.NewInt(0),
		totalReleased: uint256.NewInt(0),
		logger:        cfg.logger,
	}

	for i, account := range accounts {
		if shares[i] == 0 {
			return nil, &ZeroSharesError{Account: account, Index: i}
		}
		if _, dup := s.shares[account]; dup {
			return nil, &DuplicatePayeeError{Account: account, Index: i}
		}
		s.payees = append(s.payees, account)
		s.shares[account] = shares[i]
		s.totalShares.Add(s.totalShares, uint256.NewInt(shares[i]))
	}

	s.logger.Debug("splitter configured",
		"payees", len(s.payees),
		"total_shares", s.totalShares.Dec(),
	)
	return s, nil
}

// ReleasableAt reports the amount account could withdraw if the held
// balance were balance. Pure: nothing is read from the environment and no
// state changes.
func (s *Splitter) ReleasableAt(account common.Address, balance *uint256.Int) (*uint256.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingLocked(account, balance)
}

// Releasable reads the current balance from the environment and reports the
// amount account could withdraw right now.
func (s *Splitter) Releasable(ctx context.Context, account common.Address) (*uint256.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	balance, err := s.env.Balance(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read balance: %w", err)
	}
	return s.pendingLocked(account, balance)
}

// Release computes the amount currently owed to account, asks the
// environment to transfer it, and commits the bookkeeping once the
// transfer has succeeded. On any failure the ledger is unchanged.
// Returns the released amount.
func (s *Splitter) Release(ctx context.Context, account common.Address) (*uint256.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	balance, err := s.env.Balance(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read balance: %w", err)
	}

	amount, err := s.pendingLocked(account, balance)
	if err != nil {
		return nil, err
	}
	if amount.IsZero() {
		return nil, ErrNothingDue
	}

	s.logger.Debug("releasing",
		"payee", account.Hex(),
		"amount", amount.Dec(),
		"balance", balance.Dec(),
	)

	if err := s.env.Transfer(ctx, account, amount); err != nil {
		return nil, &TransferError{To: account, Amount: amount.Clone(), Err: err}
	}

	s.released[account] = new(uint256.Int).Add(s.releasedLocked(account), amount)
	s.totalReleased = new(uint256.Int).Add(s.totalReleased, amount)

	s.logger.Info("released",
		"payee", account.Hex(),
		"amount", amount.Dec(),
		"total_released", s.totalReleased.Dec(),
	)
	return amount.Clone(), nil
}

// pendingLocked computes the amount currently owed to account given the
// held balance. The entitlement is floor(totalReceived * shares /
// totalShares) minus what the payee already took; the multiplication runs
// at full precision before the division. Caller must hold s.mu.
func (s *Splitter) pendingLocked(account common.Address, balance *uint256.Int) (*uint256.Int, error) {
	shares, ok := s.shares[account]
	if !ok {
		return nil, &UnknownPayeeError{Account: account}
	}

	totalReceived := new(uint256.Int)
	if _, overflow := totalReceived.AddOverflow(balance, s.totalReleased); overflow {
		return nil, &AmountOverflowError{Op: "total received"}
	}

	entitled := new(uint256.Int)
	if _, overflow := entitled.MulDivOverflow(totalReceived, uint256.NewInt(shares), s.totalShares); overflow {
		return nil, &AmountOverflowError{Op: "entitlement"}
	}

	released := s.releasedLocked(account)
	if entitled.Lt(released) {
		return nil, fmt.Errorf("payout: payee %s booked %s against entitlement %s: %w",
			account.Hex(), released.Dec(), entitled.Dec(), ErrBalanceRegressed)
	}
	return new(uint256.Int).Sub(entitled, released), nil
}

// releasedLocked returns the booked release total for account, zero when
// the payee has never released. Caller must hold s.mu.
func (s *Splitter) releasedLocked(account common.Address) *uint256.Int {
	if amount, ok := s.released[account]; ok {
		return amount
	}
	return uint256.NewInt(0)
}

// TotalShares returns the sum of all share counts.
func (s *Splitter) TotalShares() *uint256.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalShares.Clone()
}

// SharesOf returns the share count held by account, zero when account is
// not a payee.
func (s *Splitter) SharesOf(account common.Address) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shares[account]
}

// ReleasedTo returns the cumulative amount released to account.
func (s *Splitter) ReleasedTo(account common.Address) *uint256.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.releasedLocked(account).Clone()
}

// TotalReleased returns the cumulative amount released to all payees.
func (s *Splitter) TotalReleased() *uint256.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalReleased.Clone()
}

// PayeeCount returns the number of configured payees.
func (s *Splitter) PayeeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payees)
}

// Payee returns the payee at the given construction index.
func (s *Splitter) Payee(i int) (common.Address, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i < 0 || i >= len(s.payees) {
		return common.Address{}, false
	}
	return s.payees[i], true
}

// Payees returns all payees in construction order.
func (s *Splitter) Payees() []common.Address {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]common.Address, len(s.payees))
	copy(out, s.payees)
	return out
}
