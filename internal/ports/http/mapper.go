package http

import (
	"walletsync/internal/domain/asset"
	"walletsync/internal/domain/transaction"
)

func ToHTTPAsset(a asset.Asset) Asset {
	out := Asset{
		Symbol:   a.Symbol,
		Name:     a.Name,
		Decimals: a.Decimals,
		Balance:  a.Balance.String(),
	}
	if !a.IsNative() {
		addr := a.Address
		out.Address = &addr
	}
	return out
}

func ToHTTPAssets(assets []asset.Asset) []Asset {
	result := make([]Asset, len(assets))
	for i, a := range assets {
		result[i] = ToHTTPAsset(a)
	}
	return result
}

func ToHTTPActiveTransaction(tx transaction.Active) ActiveTransaction {
	return ActiveTransaction{
		ID:     tx.ID,
		Type:   string(tx.Type),
		From:   tx.From,
		To:     tx.To,
		Amount: tx.Amount,
		Token:  tx.Token,
	}
}

func ToHTTPActiveTransactions(txs []transaction.Active) []ActiveTransaction {
	result := make([]ActiveTransaction, len(txs))
	for i, tx := range txs {
		result[i] = ToHTTPActiveTransaction(tx)
	}
	return result
}
