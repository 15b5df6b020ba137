package tokens

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"walletsync/internal/domain/asset"
)

// Repository loads the static known-token list from a JSON file and serves
// lookups. The native asset is never part of the file; the sync engine
// appends it when building the asset list.
type Repository struct {
	mu              sync.RWMutex
	tokens          []asset.Token
	tokensByAddress map[string]asset.Token
}

func NewRepository(filePath string) (*Repository, error) {
	repo := &Repository{
		tokensByAddress: make(map[string]asset.Token),
	}

	if err := repo.load(filePath); err != nil {
		return nil, fmt.Errorf("tokens: load: %w", err)
	}

	return repo, nil
}

func (r *Repository) load(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	var tokens []asset.Token
	if err := json.Unmarshal(data, &tokens); err != nil {
		return fmt.Errorf("unmarshal JSON: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, token := range tokens {
		if token.Address == "" {
			return fmt.Errorf("token %q has no address", token.Symbol)
		}
		addr := strings.ToLower(token.Address)
		if _, exists := r.tokensByAddress[addr]; exists {
			return fmt.Errorf("duplicate token address %s", token.Address)
		}
		r.tokens = append(r.tokens, token)
		r.tokensByAddress[addr] = token
	}

	return nil
}

// GetList returns the known tokens in file order.
func (r *Repository) GetList(_ context.Context) ([]asset.Token, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]asset.Token, len(r.tokens))
	copy(result, r.tokens)
	return result, nil
}

// GetByAddress retrieves a token by its contract address, case-insensitively.
func (r *Repository) GetByAddress(_ context.Context, address string) (asset.Token, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	token, ok := r.tokensByAddress[strings.ToLower(address)]
	return token, ok
}

// Count returns the number of loaded tokens.
func (r *Repository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tokens)
}
