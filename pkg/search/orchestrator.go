package search

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mikeboe/tradewise/pkg/metrics"
	"github.com/mikeboe/tradewise/pkg/product"
)

// Orchestrator runs one search session at a time: it fetches suggestions,
// publishes them bare and then enriches every product in the background.
type Orchestrator struct {
	ctx     context.Context
	fetcher Fetcher
	logger  *zap.Logger
	metrics *metrics.Metrics

	mu          sync.Mutex
	current     Snapshot
	tasks       *errgroup.Group
	subscribers map[int]chan Snapshot
	nextSubID   int
}

// NewOrchestrator creates an idle orchestrator. Enrichment tasks run on ctx,
// so they outlive the call that started the search.
func NewOrchestrator(ctx context.Context, fetcher Fetcher, logger *zap.Logger, m *metrics.Metrics) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		ctx:     ctx,
		fetcher: fetcher,
		logger:  logger,
		metrics: m,
		current: Snapshot{
			Status:   StatusIdle,
			Products: []product.Product{},
		},
		tasks:       &errgroup.Group{},
		subscribers: make(map[int]chan Snapshot),
	}
}

// Search starts a new session for raw. An invalid query returns
// product.ErrEmptyQuery and leaves the current state untouched.
func (o *Orchestrator) Search(ctx context.Context, raw string) (Snapshot, error) {
	query, err := product.NewQuery(raw)
	if err != nil {
		o.metrics.RecordSearch("invalid", 0)
		return o.Snapshot(), err
	}

	sessionID := uuid.NewString()
	logger := o.logger.With(zap.String("session_id", sessionID), zap.String("query", query.String()))

	o.mu.Lock()
	o.publishLocked(Snapshot{
		SessionID: sessionID,
		Status:    StatusSearching,
		Query:     query.String(),
		Loading:   true,
		Products:  []product.Product{},
	})
	o.mu.Unlock()

	logger.Info("Search started")
	products, err := o.fetcher.FetchSuggestions(ctx, query)

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.current.SessionID != sessionID {
		logger.Info("Search superseded, discarding suggestions")
		o.metrics.RecordSearch("superseded", 0)
		return o.current, ErrSuperseded
	}

	if err != nil {
		logger.Error("Search failed", zap.Error(err))
		o.metrics.RecordSearch("failed", 0)
		snap := o.publishLocked(Snapshot{
			SessionID: sessionID,
			Status:    StatusFailed,
			Query:     query.String(),
			Error:     GenericFailureMessage,
			Products:  []product.Product{},
		})
		return snap, err
	}

	bare := make([]product.Product, len(products))
	for i, p := range products {
		bare[i] = p.Bare()
	}

	snap := o.publishLocked(Snapshot{
		SessionID: sessionID,
		Status:    StatusResults,
		Query:     query.String(),
		Products:  bare,
	})
	o.metrics.RecordSearch("ok", len(bare))
	logger.Info("Suggestions published", zap.Int("count", len(bare)))

	// Tasks block on o.mu until Search returns, so they always merge into the
	// published list.
	group := &errgroup.Group{}
	o.tasks = group
	for i, p := range bare {
		index, name := i, p.Name
		group.Go(func() error {
			o.enrich(sessionID, index, name)
			return nil
		})
	}

	return snap, nil
}

// enrich runs both enrichment calls for one product and merges once both settled.
func (o *Orchestrator) enrich(sessionID string, index int, name string) {
	o.metrics.IncEnrichmentsRunning()
	defer o.metrics.DecEnrichmentsRunning()

	start := time.Now()
	logger := o.logger.With(zap.String("session_id", sessionID), zap.Int("index", index), zap.String("product", name))

	var (
		wg       sync.WaitGroup
		imageURL string
		imageErr error
		options  []product.BuyingOption
		optsErr  error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		imageURL, imageErr = o.fetcher.GenerateImage(o.ctx, name)
	}()
	go func() {
		defer wg.Done()
		options, optsErr = o.fetcher.FindBuyingOptions(o.ctx, name)
	}()
	wg.Wait()

	o.metrics.ObserveEnrichment(time.Since(start))

	if imageErr != nil {
		logger.Warn("Image enrichment failed", zap.Error(imageErr))
		o.metrics.RecordEnrichment("image", "error")
	} else {
		o.metrics.RecordEnrichment("image", "ok")
	}

	buying := product.OptionsFrom(options)
	if optsErr != nil {
		logger.Warn("Buying options enrichment failed", zap.Error(optsErr))
		o.metrics.RecordEnrichment("buying_options", "error")
		buying = product.NoOptions()
	} else {
		o.metrics.RecordEnrichment("buying_options", "ok")
	}

	o.merge(sessionID, index, func(p *product.Product) {
		if imageErr == nil {
			p.ImageURL = imageURL
		}
		p.BuyingOptions = buying
	})
}

// merge replaces the product at index in a copy of the current list. Results
// for any other session are dropped.
func (o *Orchestrator) merge(sessionID string, index int, apply func(p *product.Product)) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.current.SessionID != sessionID {
		o.logger.Debug("Dropping stale enrichment", zap.String("session_id", sessionID), zap.Int("index", index))
		o.metrics.RecordStaleMerge()
		return
	}
	if index < 0 || index >= len(o.current.Products) {
		return
	}

	products := make([]product.Product, len(o.current.Products))
	copy(products, o.current.Products)
	updated := products[index]
	apply(&updated)
	products[index] = updated

	next := o.current
	next.Products = products
	o.publishLocked(next)
}

// publishLocked stamps the next version on snap, stores it and fans it out.
// The caller must hold o.mu.
func (o *Orchestrator) publishLocked(snap Snapshot) Snapshot {
	snap.Version = o.current.Version + 1
	o.current = snap

	for _, ch := range o.subscribers {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
	return snap
}

// Snapshot returns the latest published state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current
}

// Subscribe returns a channel that always holds the most recent snapshot not
// yet received. The current snapshot is delivered immediately. Call cancel to
// stop receiving; the channel is not closed.
func (o *Orchestrator) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	o.mu.Lock()
	id := o.nextSubID
	o.nextSubID++
	o.subscribers[id] = ch
	ch <- o.current
	o.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			o.mu.Lock()
			delete(o.subscribers, id)
			o.mu.Unlock()
		})
	}
	return ch, cancel
}

// Wait blocks until the enrichment tasks of the current session have finished.
func (o *Orchestrator) Wait() {
	o.mu.Lock()
	group := o.tasks
	o.mu.Unlock()
	_ = group.Wait()
}
