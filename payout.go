// Package payout provides proportional payment splitting for EVM-style
// accounts.
//
// A Splitter tracks a fixed set of payees, each holding an integer number of
// shares, and divides everything a shared account ever receives in proportion
// to those shares. Payees withdraw independently: the ledger computes what a
// payee is currently owed on demand and books the release once the funds have
// actually moved.
//
// # Basic Usage
//
// Create an account environment, configure the payees, and release:
//
//	account := payout.NewMemAccount()
//	account.Deposit(uint256.NewInt(100))
//
//	splitter, err := payout.NewSplitter(account,
//	    []common.Address{alice, bob},
//	    []uint64{20, 80},
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Transfers 20 to alice and books it.
//	amount, err := splitter.Release(ctx, alice)
//
// # Environments
//
// The funds themselves are never owned by the ledger. An Environment supplies
// the two operations the ledger needs: reading the held balance and moving
// funds out to a payee. Implementations provided:
//
//   - MemAccount: an in-memory balance, for tests and examples
//   - TokenAccount: a Token holder's balance, for splitting token funds
//   - ChainAccount (integration module): an externally owned account on a
//     live Ethereum node, via ethclient
//
// Bookkeeping commits only after the environment reports a successful
// transfer, so a failed transfer leaves the ledger exactly as it was.
//
// # Arithmetic
//
// All amounts are 256-bit unsigned integers (github.com/holiman/uint256). A
// payee's entitlement is floor(totalReceived * shares / totalShares), where
// totalReceived is the held balance plus everything already released. The
// multiplication is carried out at full 512-bit precision before the
// division, so nothing is lost to intermediate truncation. Division
// remainders stay in the account and become releasable as the balance grows.
// The supported ceiling is a lifetime total (balance plus released) of
// 2^256-1 units; computations beyond that fail with AmountOverflowError
// rather than wrapping around.
//
// # Vesting
//
// VestingWallet puts a linear time schedule in front of the same environment
// boundary: funds vest between a start time and start+duration, and the
// beneficiary may withdraw the vested portion at any time. The wallet's
// clock is injectable, so schedules are testable without sleeping.
//
// # Tokens
//
// Token is minimal ERC-20 style bookkeeping (balances, allowances, total
// supply). TokenAccount adapts one holder's token balance into an
// Environment, so the same ledger logic can distribute token funds.
//
// # References
//
// The accounting model follows the OpenZeppelin finance contracts:
//   - https://github.com/OpenZeppelin/openzeppelin-contracts (PaymentSplitter, VestingWallet)
//   - https://docs.openzeppelin.com/contracts/4.x/api/finance
package payout
