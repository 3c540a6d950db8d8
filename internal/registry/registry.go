package registry

import (
	"strings"
	"sync/atomic"
	"time"

	"github.com/yourorg/market-data-service/internal/model"
)

// Generation is one immutable snapshot of the product mappings. A generation
// is never mutated after publication; readers hold it without locks.
type Generation struct {
	mappings    []model.SymbolMapping
	byExchange  map[string][]model.SymbolMapping
	publishedAt time.Time
}

// NewGeneration builds a snapshot from freshly parsed mappings.
func NewGeneration(mappings []model.SymbolMapping, publishedAt time.Time) *Generation {
	byExchange := make(map[string][]model.SymbolMapping)
	for _, m := range mappings {
		byExchange[m.ExchangeCode] = append(byExchange[m.ExchangeCode], m)
	}
	return &Generation{
		mappings:    mappings,
		byExchange:  byExchange,
		publishedAt: publishedAt,
	}
}

// PublishedAt reports when this generation was published.
func (g *Generation) PublishedAt() time.Time {
	return g.publishedAt
}

// exchangeAliases maps request exchange codes to the codes used by the
// mapping script. INE products are listed under SHFE there.
var exchangeAliases = map[string]string{
	"CZCE":  "CZCE",
	"DCE":   "DCE",
	"SHFE":  "SHFE",
	"CFFEX": "CFFEX",
	"GFEX":  "GFEX",
	"INE":   "SHFE",
}

// Registry holds the current mapping generation behind an atomic pointer.
// Lookups never block; refreshes swap in a whole new generation.
type Registry struct {
	current atomic.Pointer[Generation]
}

// New creates an empty registry. Lookups fail with RegistryUnavailable until
// the first Publish.
func New() *Registry {
	return &Registry{}
}

// Publish atomically replaces the current generation.
func (r *Registry) Publish(gen *Generation) {
	r.current.Store(gen)
}

// Current returns the active generation, or nil before the first publish.
func (r *Registry) Current() *Generation {
	return r.current.Load()
}

// Age reports how long ago the current generation was published. It returns
// false before the first publish.
func (r *Registry) Age(now time.Time) (time.Duration, bool) {
	gen := r.current.Load()
	if gen == nil {
		return 0, false
	}
	return now.Sub(gen.publishedAt), true
}

// Resolve maps a product name to its quote-list mark. Exact name matches win;
// otherwise the first mapping whose name contains the query is used.
func (r *Registry) Resolve(symbol string) (string, error) {
	gen := r.current.Load()
	if gen == nil {
		return "", model.NewRegistryUnavailable("symbol mappings not loaded yet")
	}

	for _, m := range gen.mappings {
		if m.Symbol == symbol {
			return m.Mark, nil
		}
	}
	for _, m := range gen.mappings {
		if strings.Contains(m.Symbol, symbol) {
			return m.Mark, nil
		}
	}

	return "", model.NewNotFound("no mapping for product %q, list available products via /futures/symbols", symbol)
}

// List returns all mappings, or those of one exchange when a code is given.
// Codes are matched case-insensitively; INE lists the SHFE section.
func (r *Registry) List(exchange string) ([]model.SymbolMapping, error) {
	gen := r.current.Load()
	if gen == nil {
		return nil, model.NewRegistryUnavailable("symbol mappings not loaded yet")
	}

	if exchange == "" {
		out := make([]model.SymbolMapping, len(gen.mappings))
		copy(out, gen.mappings)
		return out, nil
	}

	code, ok := exchangeAliases[strings.ToUpper(exchange)]
	if !ok {
		return nil, model.NewNotFound("unknown exchange %q", exchange)
	}

	section := gen.byExchange[code]
	out := make([]model.SymbolMapping, len(section))
	copy(out, section)
	return out, nil
}
