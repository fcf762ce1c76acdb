// Package price resolves USD prices for named assets.
package price

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Lookup resolves USD prices. Ids the source does not know are absent from
// the result rather than an error.
type Lookup interface {
	Prices(ctx context.Context, ids []string) (map[string]decimal.Decimal, error)
}

// MissingPriceError reports ids that no source returned a price for.
type MissingPriceError struct {
	IDs []string
}

func (e *MissingPriceError) Error() string {
	return fmt.Sprintf("missing price for %s", strings.Join(e.IDs, ", "))
}

// Require returns the prices for ids in order, or a MissingPriceError
// naming every absent id.
func Require(prices map[string]decimal.Decimal, ids ...string) ([]decimal.Decimal, error) {
	out := make([]decimal.Decimal, 0, len(ids))
	var missing []string
	for _, id := range ids {
		value, ok := prices[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		out = append(out, value)
	}
	if len(missing) > 0 {
		return nil, &MissingPriceError{IDs: missing}
	}
	return out, nil
}

// Static serves fixed prices, typically from configuration.
type Static map[string]decimal.Decimal

func (s Static) Prices(_ context.Context, ids []string) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(ids))
	for _, id := range ids {
		if value, ok := s[id]; ok {
			out[id] = value
		}
	}
	return out, nil
}

// Chain asks each lookup in turn for the ids still unresolved.
type Chain []Lookup

func (c Chain) Prices(ctx context.Context, ids []string) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(ids))
	pending := uniqueIDs(ids)
	for _, lookup := range c {
		if len(pending) == 0 {
			break
		}
		found, err := lookup.Prices(ctx, pending)
		if err != nil {
			return nil, err
		}
		next := pending[:0:0]
		for _, id := range pending {
			if value, ok := found[id]; ok {
				out[id] = value
				continue
			}
			next = append(next, id)
		}
		pending = next
	}
	return out, nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
