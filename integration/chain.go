package integration

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/branched-services/go-payout"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/params"
	"github.com/holiman/uint256"
)

// ChainAccount adapts an externally owned account on an Ethereum node into
// a payout.Environment: balances are read from the chain and transfers are
// sent as signed value transactions, waiting for inclusion.
type ChainAccount struct {
	client  *ethclient.Client
	key     *ecdsa.PrivateKey
	chainID *big.Int
	from    common.Address

	// GasPrice overrides the node's suggested gas price when non-nil.
	GasPrice *big.Int
}

var _ payout.Environment = (*ChainAccount)(nil)

// NewChainAccount builds an environment over the account controlled by key.
func NewChainAccount(client *ethclient.Client, key *ecdsa.PrivateKey, chainID *big.Int) *ChainAccount {
	return &ChainAccount{
		client:  client,
		key:     key,
		chainID: chainID,
		from:    crypto.PubkeyToAddress(key.PublicKey),
	}
}

// Address returns the account's address.
func (a *ChainAccount) Address() common.Address {
	return a.from
}

// Balance implements payout.Environment.
func (a *ChainAccount) Balance(ctx context.Context) (*uint256.Int, error) {
	wei, err := a.client.BalanceAt(ctx, a.from, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read balance: %w", err)
	}
	balance, overflow := uint256.FromBig(wei)
	if overflow {
		return nil, fmt.Errorf("balance %s does not fit in 256 bits", wei)
	}
	return balance, nil
}

// Transfer implements payout.Environment. It sends a plain value
// transaction and fails if the transaction cannot be mined successfully.
func (a *ChainAccount) Transfer(ctx context.Context, to common.Address, amount *uint256.Int) error {
	nonce, err := a.client.PendingNonceAt(ctx, a.from)
	if err != nil {
		return fmt.Errorf("failed to get nonce: %w", err)
	}

	gasPrice := a.GasPrice
	if gasPrice == nil {
		gasPrice, err = a.client.SuggestGasPrice(ctx)
		if err != nil {
			return fmt.Errorf("failed to get gas price: %w", err)
		}
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    amount.ToBig(),
		Gas:      params.TxGas,
		GasPrice: gasPrice,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(a.chainID), a.key)
	if err != nil {
		return fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := a.client.SendTransaction(ctx, signed); err != nil {
		return fmt.Errorf("failed to send transaction: %w", err)
	}

	receipt, err := bind.WaitMined(ctx, a.client, signed)
	if err != nil {
		return fmt.Errorf("failed to mine transaction: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("transaction %s reverted", signed.Hash().Hex())
	}
	return nil
}
