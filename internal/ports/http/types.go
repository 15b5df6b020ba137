package http

import (
	"context"
	"math/big"

	"walletsync/internal/domain/asset"
	"walletsync/internal/domain/transaction"
)

// SyncService is the synchronization engine surface the HTTP layer drives.
type SyncService interface {
	LoadAssets(ctx context.Context, force bool) error
	LoadTransactions(ctx context.Context, force bool) error
	LoadActiveTransactions(ctx context.Context) error
	SendEther(ctx context.Context, to string, amount *big.Int) error
	SendTokens(ctx context.Context, token, to string, amount *big.Int) error
	SetTokenAllowance(ctx context.Context, token string) error
}

// StateReader reads the published wallet state.
type StateReader interface {
	Assets() []asset.Asset
	Transactions() []transaction.Record
	ActiveTransactions() []transaction.Active
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Asset is the HTTP representation of a synced asset. A null address marks
// the native asset.
type Asset struct {
	Address  *string `json:"address"`
	Symbol   string  `json:"symbol"`
	Name     string  `json:"name"`
	Decimals uint8   `json:"decimals"`
	Balance  string  `json:"balance"`
}

// ActiveTransaction is the HTTP representation of an in-flight transaction.
type ActiveTransaction struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
	Amount string `json:"amount"`
	Token  string `json:"token,omitempty"`
}

// TransferRequest broadcasts an ether or token transfer. Token empty means
// ether; Amount is a base-10 integer in the asset's smallest units.
type TransferRequest struct {
	To     string `json:"to"`
	Amount string `json:"amount"`
	Token  string `json:"token,omitempty"`
}

// AllowanceRequest grants the exchange proxy an unlimited allowance on a
// token.
type AllowanceRequest struct {
	Token string `json:"token"`
}
