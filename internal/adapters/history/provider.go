package history

import (
	"context"
	"fmt"
	"net/url"

	"golang.org/x/sync/errgroup"

	"walletsync/internal/domain"
	"walletsync/internal/domain/transaction"
)

// Provider implements domain.HistoryProvider against the REST trade-history
// service.
type Provider struct {
	client      *Client
	rateLimiter domain.RateLimiterService
}

func NewProvider(client *Client, rateLimiter domain.RateLimiterService) *Provider {
	return &Provider{
		client:      client,
		rateLimiter: rateLimiter,
	}
}

// FetchHistory fetches fill and cancel events for the address in both maker
// and taker roles, all four requests in flight concurrently, and reshapes
// them into one ordered list: maker fills, taker fills, maker cancels, taker
// cancels. Any request or decode failure fails the whole fetch; no partial
// list is returned.
func (p *Provider) FetchHistory(ctx context.Context, address, network string) ([]transaction.Record, error) {
	if p.rateLimiter != nil {
		if err := p.rateLimiter.Allow(ctx); err != nil {
			return nil, fmt.Errorf("history: rate limit exceeded: %w", err)
		}
	}

	var makerFills, takerFills, makerCancels, takerCancels []transaction.Record

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return p.fetchEvents(gctx, network, "fills", "maker", address, &makerFills) })
	g.Go(func() error { return p.fetchEvents(gctx, network, "fills", "taker", address, &takerFills) })
	g.Go(func() error { return p.fetchEvents(gctx, network, "cancels", "maker", address, &makerCancels) })
	g.Go(func() error { return p.fetchEvents(gctx, network, "cancels", "taker", address, &takerCancels) })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	tag(makerFills, transaction.StatusFilled)
	tag(takerFills, transaction.StatusFilled)
	tag(makerCancels, transaction.StatusCancelled)
	tag(takerCancels, transaction.StatusCancelled)

	records := make([]transaction.Record, 0, len(makerFills)+len(takerFills)+len(makerCancels)+len(takerCancels))
	records = append(records, makerFills...)
	records = append(records, takerFills...)
	records = append(records, makerCancels...)
	records = append(records, takerCancels...)
	return records, nil
}

func (p *Provider) fetchEvents(ctx context.Context, network, kind, role, address string, out *[]transaction.Record) error {
	params := url.Values{}
	params.Set(role, address)

	path := fmt.Sprintf("%s/%s", network, kind)
	if err := p.client.get(ctx, path, params, out); err != nil {
		return fmt.Errorf("history: fetch %s as %s: %w", kind, role, err)
	}
	return nil
}

// tag stamps every event with its derived identity and status.
func tag(records []transaction.Record, status transaction.Status) {
	for i := range records {
		records[i].ID = records[i].TransactionHash
		records[i].Status = status
	}
}
