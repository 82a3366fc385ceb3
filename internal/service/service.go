package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"sewernet/internal/codec"
	"sewernet/internal/domain"
	"sewernet/internal/loader"
	"sewernet/internal/repository"
)

var (
	// ErrNoNetwork is returned by operations that need a loaded network
	ErrNoNetwork = errors.New("no network loaded")
	// ErrNoRepository is returned by storage operations on a service without one
	ErrNoRepository = errors.New("no repository configured")
)

// LoadResult summarizes a network after it was loaded
type LoadResult struct {
	Name        string `json:"name"`
	Manholes    int    `json:"manholes"`
	Nodes       int    `json:"nodes"`
	Connections int    `json:"connections"`
	Outlets     int    `json:"outlets"`
}

// OutletReport names a compartment that is, or should become, an outlet
type OutletReport struct {
	Manhole     string `json:"manhole"`
	Compartment string `json:"compartment"`
	Outlet      bool   `json:"outlet"`
}

// PropertyChangedPayload is the payload of EventPropertyChanged
type PropertyChangedPayload struct {
	Object   string `json:"object"`
	Kind     string `json:"kind"`
	Property string `json:"property"`
}

// NetworkService provides business logic for the loaded network
type NetworkService struct {
	mu       sync.RWMutex
	repo     repository.Repository
	eventBus *EventBus
	logger   *slog.Logger
	opts     loader.Options

	network *domain.Network
	subs    []domain.Subscription
}

// NewNetworkService creates a new network service. repo may be nil when the
// caller never saves or restores.
func NewNetworkService(repo repository.Repository, eventBus *EventBus, opts loader.Options) *NetworkService {
	if eventBus == nil {
		eventBus = NewEventBus()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
		opts.Logger = logger
	}
	return &NetworkService{
		repo:     repo,
		eventBus: eventBus,
		logger:   logger,
		opts:     opts,
	}
}

// Events returns the bus the service publishes on
func (s *NetworkService) Events() *EventBus {
	return s.eventBus
}

// Load builds a network from doc and makes it the current one
func (s *NetworkService) Load(doc *codec.Document) (*LoadResult, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	net, err := loader.Build(doc, s.opts)
	if err != nil {
		return nil, fmt.Errorf("failed to build network %s: %w", doc.Name, err)
	}

	s.mu.Lock()
	s.replace(net)
	result := summarize(net)
	s.mu.Unlock()

	s.logger.Info("network loaded",
		"network", result.Name,
		"manholes", result.Manholes,
		"connections", result.Connections)
	s.eventBus.Publish(Event{Type: EventNetworkLoaded, Payload: result})
	return result, nil
}

// LoadFile reads a document from path and loads it
func (s *NetworkService) LoadFile(path string) (*LoadResult, error) {
	doc, err := loader.ReadDocument(path)
	if err != nil {
		return nil, err
	}
	return s.Load(doc)
}

// replace swaps the current network. Caller holds the write lock.
func (s *NetworkService) replace(net *domain.Network) {
	for _, sub := range s.subs {
		sub.Cancel()
	}
	s.subs = s.subs[:0]
	s.network = net

	for _, node := range net.Nodes() {
		kind := "node"
		if _, ok := node.(*domain.Manhole); ok {
			kind = "manhole"
		}
		s.subs = append(s.subs, node.OnPropertyChanged(s.forward(kind)))
	}
	for _, conn := range net.Connections() {
		s.subs = append(s.subs, conn.OnPropertyChanged(s.forward("connection")))
	}
}

func (s *NetworkService) forward(kind string) func(domain.PropertyChange) {
	return func(pc domain.PropertyChange) {
		payload := PropertyChangedPayload{Kind: kind, Property: pc.Property}
		if named, ok := pc.Sender.(interface{ Name() string }); ok {
			payload.Object = named.Name()
		}
		s.logger.Debug("property changed", "kind", kind, "object", payload.Object, "property", pc.Property)
		s.eventBus.Publish(Event{Type: EventPropertyChanged, Payload: payload})
	}
}

func summarize(net *domain.Network) *LoadResult {
	return &LoadResult{
		Name:        net.Name(),
		Manholes:    len(net.Manholes()),
		Nodes:       len(net.Nodes()) - len(net.Manholes()),
		Connections: len(net.Connections()),
		Outlets:     len(net.OutletCompartments()),
	}
}

// Summary describes the current network
func (s *NetworkService) Summary() (*LoadResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.network == nil {
		return nil, ErrNoNetwork
	}
	return summarize(s.network), nil
}

// Snapshot returns the current network as a document
func (s *NetworkService) Snapshot() (*codec.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.network == nil {
		return nil, ErrNoNetwork
	}
	return loader.Snapshot(s.network), nil
}

// Export writes the current network to w in the given format
func (s *NetworkService) Export(w io.Writer, format string) error {
	c, err := codec.ForFormat(format)
	if err != nil {
		return err
	}
	doc, err := s.Snapshot()
	if err != nil {
		return err
	}
	return c.Export(doc, w)
}

// Validate reports structural problems of the current network
func (s *NetworkService) Validate() ([]domain.ValidationIssue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.network == nil {
		return nil, ErrNoNetwork
	}
	return s.network.Validate(), nil
}

// Outlets lists existing outlet compartments followed by the compartments
// that qualify as outlets but have not been converted yet
func (s *NetworkService) Outlets() ([]OutletReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.network == nil {
		return nil, ErrNoNetwork
	}

	var out []OutletReport
	for _, c := range s.network.OutletCompartments() {
		out = append(out, OutletReport{Manhole: c.ParentManhole().Name(), Compartment: c.Name(), Outlet: true})
	}
	for _, cand := range s.network.OutletCandidates() {
		out = append(out, OutletReport{Manhole: cand.Manhole.Name(), Compartment: cand.Compartment.Name()})
	}
	return out, nil
}

// PromoteOutlets converts every outlet candidate into an outlet compartment
func (s *NetworkService) PromoteOutlets() ([]OutletReport, error) {
	s.mu.Lock()
	if s.network == nil {
		s.mu.Unlock()
		return nil, ErrNoNetwork
	}
	promoted := s.network.PromoteOutlets()
	s.mu.Unlock()

	out := make([]OutletReport, 0, len(promoted))
	for _, c := range promoted {
		out = append(out, OutletReport{Manhole: c.ParentManhole().Name(), Compartment: c.Name(), Outlet: true})
	}
	if len(out) > 0 {
		s.logger.Info("outlets promoted", "count", len(out))
		s.eventBus.Publish(Event{Type: EventOutletsPromoted, Payload: out})
	}
	return out, nil
}

// Save stores the current network in the repository
func (s *NetworkService) Save(ctx context.Context) error {
	if s.repo == nil {
		return ErrNoRepository
	}
	doc, err := s.Snapshot()
	if err != nil {
		return err
	}
	if err := s.repo.SaveNetwork(ctx, doc); err != nil {
		return fmt.Errorf("failed to save network %s: %w", doc.Name, err)
	}

	s.logger.Info("network saved", "network", doc.Name)
	s.eventBus.Publish(Event{
		Type:    EventNetworkSaved,
		Payload: map[string]string{"network": doc.Name},
	})
	return nil
}

// Restore loads a stored network and makes it the current one
func (s *NetworkService) Restore(ctx context.Context, name string) (*LoadResult, error) {
	if s.repo == nil {
		return nil, ErrNoRepository
	}
	doc, err := s.repo.LoadNetwork(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.Load(doc)
}

// List returns the stored networks
func (s *NetworkService) List(ctx context.Context) ([]repository.NetworkSummary, error) {
	if s.repo == nil {
		return nil, ErrNoRepository
	}
	return s.repo.ListNetworks(ctx)
}

// Delete removes a stored network. The loaded network is left alone.
func (s *NetworkService) Delete(ctx context.Context, name string) error {
	if s.repo == nil {
		return ErrNoRepository
	}
	if err := s.repo.DeleteNetwork(ctx, name); err != nil {
		return err
	}

	s.eventBus.Publish(Event{
		Type:    EventNetworkDeleted,
		Payload: map[string]string{"network": name},
	})
	return nil
}

// Reload rereads path after an external change. A failed reload keeps the
// current network and is reported as an event.
func (s *NetworkService) Reload(path string) {
	if _, err := s.LoadFile(path); err != nil {
		s.logger.Error("reload failed", "path", path, "error", err)
		s.eventBus.Publish(Event{
			Type:    EventReloadFailed,
			Payload: map[string]string{"path": path, "error": err.Error()},
		})
	}
}
