package payout

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/jonboulle/clockwork"
)

// VestingWallet releases an account's funds to a single beneficiary on a
// linear schedule. Nothing is vested before start and everything is vested
// from start+duration; in between the vested portion grows with elapsed
// time. Funds deposited at any point follow the same curve, since the
// schedule is computed over the lifetime total (held balance plus already
// released).
type VestingWallet struct {
	mu sync.Mutex

	env         Environment
	beneficiary common.Address
	start       time.Time
	duration    time.Duration
	released    *uint256.Int

	clock  clockwork.Clock
	logger *slog.Logger
}

// NewVestingWallet builds a wallet vesting env's funds to beneficiary
// linearly between start and start+duration. The duration must be positive
// and the beneficiary must not be the zero address. Use WithClock to
// control the time source.
func NewVestingWallet(env Environment, beneficiary common.Address, start time.Time, duration time.Duration, opts ...Option) (*VestingWallet, error) {
	cfg := defaultSettings()
	for _, opt := range opts {
		opt(cfg)
	}

	if env == nil {
		return nil, ErrNilEnvironment
	}
	if beneficiary == (common.Address{}) {
		return nil, fmt.Errorf("%w: zero beneficiary address", ErrInvalidConfig)
	}
	if duration <= 0 {
		return nil, &NonPositiveDurationError{Duration: duration}
	}

	return &VestingWallet{
		env:         env,
		beneficiary: beneficiary,
		start:       start,
		duration:    duration,
		released:    uint256.NewInt(0),
		clock:       cfg.clock,
		logger:      cfg.logger,
	}, nil
}

// VestedAt reports the portion of lifetime funds vested as of t.
func (w *VestingWallet) VestedAt(ctx context.Context, t time.Time) (*uint256.Int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	balance, err := w.env.Balance(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read balance: %w", err)
	}
	return w.vestedLocked(balance, t)
}

// Releasable reports the amount vested and not yet withdrawn as of the
// wallet clock's current time.
func (w *VestingWallet) Releasable(ctx context.Context) (*uint256.Int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	balance, err := w.env.Balance(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read balance: %w", err)
	}
	return w.releasableLocked(balance)
}

// Release transfers everything currently vested and unreleased to the
// beneficiary, committing the bookkeeping once the transfer has succeeded.
// On any failure the wallet is unchanged. Returns the released amount.
func (w *VestingWallet) Release(ctx context.Context) (*uint256.Int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	balance, err := w.env.Balance(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read balance: %w", err)
	}

	amount, err := w.releasableLocked(balance)
	if err != nil {
		return nil, err
	}
	if amount.IsZero() {
		return nil, ErrNothingDue
	}

	if err := w.env.Transfer(ctx, w.beneficiary, amount); err != nil {
		return nil, &TransferError{To: w.beneficiary, Amount: amount.Clone(), Err: err}
	}

	w.released = new(uint256.Int).Add(w.released, amount)

	w.logger.Info("vested funds released",
		"beneficiary", w.beneficiary.Hex(),
		"amount", amount.Dec(),
		"released", w.released.Dec(),
	)
	return amount.Clone(), nil
}

// releasableLocked computes vested-at-now minus released. Caller must hold w.mu.
func (w *VestingWallet) releasableLocked(balance *uint256.Int) (*uint256.Int, error) {
	vested, err := w.vestedLocked(balance, w.clock.Now())
	if err != nil {
		return nil, err
	}
	if vested.Lt(w.released) {
		return nil, fmt.Errorf("payout: released %s against vested %s: %w",
			w.released.Dec(), vested.Dec(), ErrBalanceRegressed)
	}
	return new(uint256.Int).Sub(vested, w.released), nil
}

// vestedLocked applies the linear schedule to the lifetime total (held
// balance plus released) at nanosecond resolution. Caller must hold w.mu.
func (w *VestingWallet) vestedLocked(balance *uint256.Int, t time.Time) (*uint256.Int, error) {
	total := new(uint256.Int)
	if _, overflow := total.AddOverflow(balance, w.released); overflow {
		return nil, &AmountOverflowError{Op: "total allocation"}
	}

	if t.Before(w.start) {
		return uint256.NewInt(0), nil
	}
	end := w.start.Add(w.duration)
	if !t.Before(end) {
		return total, nil
	}

	elapsed := uint256.NewInt(uint64(t.Sub(w.start).Nanoseconds()))
	window := uint256.NewInt(uint64(w.duration.Nanoseconds()))

	vested := new(uint256.Int)
	if _, overflow := vested.MulDivOverflow(total, elapsed, window); overflow {
		return nil, &AmountOverflowError{Op: "vesting schedule"}
	}
	return vested, nil
}

// Beneficiary returns the account the funds vest to.
func (w *VestingWallet) Beneficiary() common.Address {
	return w.beneficiary
}

// Start returns the schedule start time.
func (w *VestingWallet) Start() time.Time {
	return w.start
}

// Duration returns the schedule length.
func (w *VestingWallet) Duration() time.Duration {
	return w.duration
}

// Released returns the cumulative amount already released.
func (w *VestingWallet) Released() *uint256.Int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.released.Clone()
}
