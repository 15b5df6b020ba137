package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

const (
	etherTransferGasLimit = 21000
	tokenCallGasLimit     = 120000
)

// Backend is the subset of the Ethereum JSON-RPC client the engine needs.
// *ethclient.Client satisfies it.
type Backend interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// Signer signs outgoing transactions for the account the engine syncs.
type Signer interface {
	Address() common.Address
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// Client reads balances from and broadcasts transactions to an Ethereum
// node. It implements domain.BalanceProvider and domain.TxSender.
type Client struct {
	backend Backend
	signer  Signer
	chainID *big.Int
}

func NewClient(backend Backend, signer Signer, chainID *big.Int) *Client {
	return &Client{
		backend: backend,
		signer:  signer,
		chainID: chainID,
	}
}

// Dial connects to an Ethereum JSON-RPC endpoint and resolves its chain id.
func Dial(ctx context.Context, rpcURL string, signer Signer) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("chain: dial %s: %w", rpcURL, err)
	}

	chainID, err := eth.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("chain: resolve chain id: %w", err)
	}

	return NewClient(eth, signer, chainID), nil
}

// NativeBalance returns the account's ether balance in wei at the latest
// block.
func (c *Client) NativeBalance(ctx context.Context, account string) (*big.Int, error) {
	balance, err := c.backend.BalanceAt(ctx, common.HexToAddress(account), nil)
	if err != nil {
		return nil, fmt.Errorf("chain: native balance: %w", err)
	}
	return balance, nil
}

// TokenBalance returns the account's balance of the given ERC-20 token, in
// the token's smallest units.
func (c *Client) TokenBalance(ctx context.Context, token, account string) (*big.Int, error) {
	data, err := packBalanceOf(common.HexToAddress(account))
	if err != nil {
		return nil, err
	}

	contract := common.HexToAddress(token)
	output, err := c.backend.CallContract(ctx, ethereum.CallMsg{
		To:   &contract,
		Data: data,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("chain: token balance %s: %w", token, err)
	}

	return unpackBalanceOf(output)
}

// SendEther broadcasts a plain ether transfer and returns the transaction
// hash.
func (c *Client) SendEther(ctx context.Context, to string, amount *big.Int) (string, error) {
	recipient := common.HexToAddress(to)
	return c.broadcast(ctx, &recipient, amount, etherTransferGasLimit, nil)
}

// SendTokens broadcasts an ERC-20 transfer and returns the transaction hash.
func (c *Client) SendTokens(ctx context.Context, token, to string, amount *big.Int) (string, error) {
	data, err := packTransfer(common.HexToAddress(to), amount)
	if err != nil {
		return "", err
	}

	contract := common.HexToAddress(token)
	return c.broadcast(ctx, &contract, common.Big0, tokenCallGasLimit, data)
}

// SetUnlimitedAllowance approves the spender for the maximum uint256 amount
// on the given token and returns the transaction hash.
func (c *Client) SetUnlimitedAllowance(ctx context.Context, token, spender string) (string, error) {
	data, err := packApprove(common.HexToAddress(spender), maxUint256)
	if err != nil {
		return "", err
	}

	contract := common.HexToAddress(token)
	return c.broadcast(ctx, &contract, common.Big0, tokenCallGasLimit, data)
}

func (c *Client) broadcast(ctx context.Context, to *common.Address, value *big.Int, gasLimit uint64, data []byte) (string, error) {
	if c.signer == nil {
		return "", fmt.Errorf("chain: no signer configured")
	}

	nonce, err := c.backend.PendingNonceAt(ctx, c.signer.Address())
	if err != nil {
		return "", fmt.Errorf("chain: pending nonce: %w", err)
	}

	gasPrice, err := c.backend.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("chain: suggest gas price: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       to,
		Value:    value,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})

	signed, err := c.signer.SignTx(tx, c.chainID)
	if err != nil {
		return "", fmt.Errorf("chain: sign transaction: %w", err)
	}

	if err := c.backend.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("chain: send transaction: %w", err)
	}

	return signed.Hash().Hex(), nil
}
