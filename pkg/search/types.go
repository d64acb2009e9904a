package search

import (
	"context"
	"errors"

	"github.com/mikeboe/tradewise/pkg/product"
)

// Status is the phase of the current search session.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusSearching Status = "searching"
	StatusResults   Status = "results"
	StatusFailed    Status = "failed"
)

// GenericFailureMessage is shown when no suggestions could be fetched.
const GenericFailureMessage = "Sorry, we hit a snag trying to find your gadget. Please try a different search."

var (
	ErrSuperseded = errors.New("search was superseded by a newer one")
)

// Snapshot is an immutable view of the orchestrator state. The Products slice
// of a published snapshot is never modified.
type Snapshot struct {
	SessionID string            `json:"sessionId,omitempty"`
	Status    Status            `json:"status"`
	Query     string            `json:"query,omitempty"`
	Loading   bool              `json:"loading"`
	Error     string            `json:"error,omitempty"`
	Products  []product.Product `json:"products"`
	Version   uint64            `json:"version"`
}

// Settled reports whether the results are in and every product finished enrichment.
func (s Snapshot) Settled() bool {
	if s.Status != StatusResults {
		return false
	}
	for _, p := range s.Products {
		if p.BuyingOptions.Pending() {
			return false
		}
	}
	return true
}

// Fetcher performs the provider calls of a search.
type Fetcher interface {
	FetchSuggestions(ctx context.Context, query product.Query) ([]product.Product, error)
	GenerateImage(ctx context.Context, productName string) (string, error)
	FindBuyingOptions(ctx context.Context, productName string) ([]product.BuyingOption, error)
}
