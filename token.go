package payout

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Token is minimal ERC-20 style bookkeeping: per-holder balances, spender
// allowances, and a total supply that is conserved across every operation
// except Mint and Burn.
type Token struct {
	mu sync.Mutex

	name     string
	symbol   string
	decimals uint8

	balances    map[common.Address]*uint256.Int
	allowances  map[common.Address]map[common.Address]*uint256.Int
	totalSupply *uint256.Int

	logger *slog.Logger
}

// NewToken creates an empty token with the given metadata.
func NewToken(name, symbol string, decimals uint8, opts ...Option) *Token {
	cfg := defaultSettings()
	for _, opt := range opts {
		opt(cfg)
	}

	return &Token{
		name:        name,
		symbol:      symbol,
		decimals:    decimals,
		balances:    make(map[common.Address]*uint256.Int),
		allowances:  make(map[common.Address]map[common.Address]*uint256.Int),
		totalSupply: uint256.NewInt(0),
		logger:      cfg.logger,
	}
}

// Name returns the token name.
func (t *Token) Name() string {
	return t.name
}

// Symbol returns the token symbol.
func (t *Token) Symbol() string {
	return t.symbol
}

// Decimals returns the display decimals.
func (t *Token) Decimals() uint8 {
	return t.decimals
}

// TotalSupply returns the number of units in circulation.
func (t *Token) TotalSupply() *uint256.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.totalSupply.Clone()
}

// BalanceOf returns the units held by addr.
func (t *Token) BalanceOf(addr common.Address) *uint256.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.balanceLocked(addr).Clone()
}

// Mint creates amount new units and credits them to to.
func (t *Token) Mint(to common.Address, amount *uint256.Int) error {
	if to == (common.Address{}) {
		return ErrZeroAddress
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	supply := new(uint256.Int)
	if _, overflow := supply.AddOverflow(t.totalSupply, amount); overflow {
		return &AmountOverflowError{Op: "mint"}
	}
	t.totalSupply = supply
	t.balances[to] = new(uint256.Int).Add(t.balanceLocked(to), amount)

	t.logger.Debug("minted", "to", to.Hex(), "amount", amount.Dec())
	return nil
}

// Burn destroys amount units held by from.
func (t *Token) Burn(from common.Address, amount *uint256.Int) error {
	if from == (common.Address{}) {
		return ErrZeroAddress
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	balance := t.balanceLocked(from)
	if balance.Lt(amount) {
		return ErrInsufficientBalance
	}
	t.balances[from] = new(uint256.Int).Sub(balance, amount)
	t.totalSupply = new(uint256.Int).Sub(t.totalSupply, amount)

	t.logger.Debug("burned", "from", from.Hex(), "amount", amount.Dec())
	return nil
}

// Transfer moves amount units from one holder to another.
func (t *Token) Transfer(from, to common.Address, amount *uint256.Int) error {
	if from == (common.Address{}) || to == (common.Address{}) {
		return ErrZeroAddress
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.transferLocked(from, to, amount)
}

// Approve lets spender move up to amount of owner's balance through
// TransferFrom. A second Approve replaces the previous allowance.
func (t *Token) Approve(owner, spender common.Address, amount *uint256.Int) error {
	if owner == (common.Address{}) || spender == (common.Address{}) {
		return ErrZeroAddress
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	approvals, ok := t.allowances[owner]
	if !ok {
		approvals = make(map[common.Address]*uint256.Int)
		t.allowances[owner] = approvals
	}
	approvals[spender] = amount.Clone()
	return nil
}

// Allowance returns how much spender may still move out of owner's balance.
func (t *Token) Allowance(owner, spender common.Address) *uint256.Int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if approvals, ok := t.allowances[owner]; ok {
		if amount, ok := approvals[spender]; ok {
			return amount.Clone()
		}
	}
	return uint256.NewInt(0)
}

// TransferFrom moves amount units from from to to on spender's authority,
// spending spender's allowance. The allowance is only reduced when the
// underlying transfer succeeds.
func (t *Token) TransferFrom(spender, from, to common.Address, amount *uint256.Int) error {
	if spender == (common.Address{}) || from == (common.Address{}) || to == (common.Address{}) {
		return ErrZeroAddress
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	approvals := t.allowances[from]
	allowance := uint256.NewInt(0)
	if approved, ok := approvals[spender]; ok {
		allowance = approved
	}
	if allowance.Lt(amount) {
		return ErrInsufficientAllowance
	}

	if err := t.transferLocked(from, to, amount); err != nil {
		return err
	}
	if approvals == nil {
		approvals = make(map[common.Address]*uint256.Int)
		t.allowances[from] = approvals
	}
	approvals[spender] = new(uint256.Int).Sub(allowance, amount)
	return nil
}

// transferLocked debits from and credits to. Caller must hold t.mu.
func (t *Token) transferLocked(from, to common.Address, amount *uint256.Int) error {
	balance := t.balanceLocked(from)
	if balance.Lt(amount) {
		return ErrInsufficientBalance
	}
	t.balances[from] = new(uint256.Int).Sub(balance, amount)
	t.balances[to] = new(uint256.Int).Add(t.balanceLocked(to), amount)
	return nil
}

// balanceLocked returns the stored balance for addr, zero when absent.
// Caller must hold t.mu.
func (t *Token) balanceLocked(addr common.Address) *uint256.Int {
	if balance, ok := t.balances[addr]; ok {
		return balance
	}
	return uint256.NewInt(0)
}

// TokenAccount adapts one token-holding address into an Environment, so a
// Splitter or VestingWallet can distribute token balances instead of
// native funds.
type TokenAccount struct {
	token  *Token
	holder common.Address
}

// NewTokenAccount builds an Environment over holder's balance in token.
func NewTokenAccount(token *Token, holder common.Address) (*TokenAccount, error) {
	if token == nil {
		return nil, fmt.Errorf("%w: nil token", ErrInvalidConfig)
	}
	if holder == (common.Address{}) {
		return nil, ErrZeroAddress
	}
	return &TokenAccount{token: token, holder: holder}, nil
}

// Holder returns the account whose balance backs this environment.
func (a *TokenAccount) Holder() common.Address {
	return a.holder
}

// Balance implements Environment.
func (a *TokenAccount) Balance(ctx context.Context) (*uint256.Int, error) {
	return a.token.BalanceOf(a.holder), nil
}

// Transfer implements Environment by moving token units out of the holder.
func (a *TokenAccount) Transfer(ctx context.Context, to common.Address, amount *uint256.Int) error {
	return a.token.Transfer(a.holder, to, amount)
}
