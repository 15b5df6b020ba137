package asset

import (
	"strings"

	"github.com/shopspring/decimal"
)

// NativeSymbol is the symbol of the chain's native asset. The native asset
// entry carries an empty Address; every other asset has a unique contract
// address.
const (
	NativeSymbol   = "ETH"
	NativeName     = "Ether"
	NativeDecimals = 18
)

// Token describes a known asset without a balance attached.
type Token struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals uint8  `json:"decimals"`
}

// IsNative reports whether the token is the chain's native asset.
func (t Token) IsNative() bool {
	return t.Address == ""
}

// NativeToken returns the token entry for the chain's native asset.
func NativeToken() Token {
	return Token{
		Symbol:   NativeSymbol,
		Name:     NativeName,
		Decimals: NativeDecimals,
	}
}

// Asset is a token extended with the account's current balance, in the
// token's smallest units.
type Asset struct {
	Token
	Balance decimal.Decimal `json:"balance"`
}

// FindByAddress returns the asset with the given contract address, matching
// case-insensitively. An empty address selects the native asset.
func FindByAddress(assets []Asset, address string) (Asset, bool) {
	for _, a := range assets {
		if strings.EqualFold(a.Address, address) {
			return a, true
		}
	}
	return Asset{}, false
}
