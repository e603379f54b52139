package source

import (
	"github.com/pharmaclaims/substantia/internal/cache"
	"github.com/pharmaclaims/substantia/internal/model"
	"github.com/pharmaclaims/substantia/internal/worker"
)

const ncbiHost = "eutils.ncbi.nlm.nih.gov"

// Clients bundles the three source clients and the full-text resolver over
// shared HTTP plumbing: one transport, one cache, one per-host rate limiter.
type Clients struct {
	Label      *LabelClient
	Literature *LiteratureClient
	Trials     *TrialClient
	Resolver   *FullTextResolver
}

// NewClients wires the source layer from config. With an NCBI API key the
// E-utilities host allowance rises from 3 to 10 requests per second.
func NewClients(cfg *model.Config, c cache.Cache) *Clients {
	limiter := worker.NewLimiter(cfg.Concurrency.RequestsPerSec, cfg.Concurrency.Burst)
	if cfg.NCBI.APIKey != "" {
		limiter.SetHostRate(ncbiHost, 10, 10)
	}

	r := newREST(cfg, c, limiter)
	lit := NewLiteratureClient(r, cfg.NCBI)

	return &Clients{
		Label:      NewLabelClient(r),
		Literature: lit,
		Trials:     NewTrialClient(r, cfg.Search),
		Resolver:   NewFullTextResolver(lit, cfg.Concurrency.FullTextWorkers),
	}
}
