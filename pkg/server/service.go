package server

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mikeboe/tradewise/pkg/metrics"
	"github.com/mikeboe/tradewise/pkg/search"
)

var (
	ErrWorkspaceNotFound = errors.New("workspace not found")
)

// Workspace is one browser tab's search state.
type Workspace struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	search *search.Orchestrator
}

func (w *Workspace) Orchestrator() *search.Orchestrator {
	return w.search
}

// Service owns the workspaces. Workspaces live in memory for the process lifetime
// unless deleted.
type Service struct {
	ctx     context.Context
	fetcher search.Fetcher
	logger  *zap.Logger
	metrics *metrics.Metrics

	mu         sync.RWMutex
	workspaces map[uuid.UUID]*Workspace
}

// NewService creates a Service. ctx bounds all background enrichment.
func NewService(ctx context.Context, fetcher search.Fetcher, logger *zap.Logger, m *metrics.Metrics) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		ctx:        ctx,
		fetcher:    fetcher,
		logger:     logger,
		metrics:    m,
		workspaces: make(map[uuid.UUID]*Workspace),
	}
}

func (s *Service) CreateWorkspace() *Workspace {
	id := uuid.New()
	ws := &Workspace{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		search:    search.NewOrchestrator(s.ctx, s.fetcher, s.logger.With(zap.String("workspace_id", id.String())), s.metrics),
	}

	s.mu.Lock()
	s.workspaces[id] = ws
	count := len(s.workspaces)
	s.mu.Unlock()

	s.metrics.SetWorkspaces(count)
	s.logger.Debug("Workspace created", zap.String("workspace_id", id.String()))
	return ws
}

func (s *Service) GetWorkspace(id uuid.UUID) (*Workspace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ws, ok := s.workspaces[id]
	if !ok {
		return nil, ErrWorkspaceNotFound
	}
	return ws, nil
}

// ListWorkspaces returns all workspaces, newest first.
func (s *Service) ListWorkspaces() []*Workspace {
	s.mu.RLock()
	list := make([]*Workspace, 0, len(s.workspaces))
	for _, ws := range s.workspaces {
		list = append(list, ws)
	}
	s.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list
}

// DeleteWorkspace forgets a workspace. Its in-flight enrichment still finishes
// but nobody can observe the result.
func (s *Service) DeleteWorkspace(id uuid.UUID) error {
	s.mu.Lock()
	_, ok := s.workspaces[id]
	delete(s.workspaces, id)
	count := len(s.workspaces)
	s.mu.Unlock()

	if !ok {
		return ErrWorkspaceNotFound
	}
	s.metrics.SetWorkspaces(count)
	return nil
}

// Suggest runs a complete search outside any workspace and waits until every
// product has been enriched.
func (s *Service) Suggest(ctx context.Context, query string) (search.Snapshot, error) {
	orchestrator := search.NewOrchestrator(s.ctx, s.fetcher, s.logger, s.metrics)

	snap, err := orchestrator.Search(ctx, query)
	if err != nil {
		return snap, err
	}

	done := make(chan struct{})
	go func() {
		orchestrator.Wait()
		close(done)
	}()

	select {
	case <-done:
		return orchestrator.Snapshot(), nil
	case <-ctx.Done():
		return orchestrator.Snapshot(), ctx.Err()
	}
}
