package repository

import (
	"context"
	"errors"
	"time"

	"sewernet/internal/codec"
)

// ErrNotFound is returned when no network is stored under a name
var ErrNotFound = errors.New("network not found")

// NetworkSummary describes a stored network without loading it
type NetworkSummary struct {
	Name        string    `json:"name"`
	Version     string    `json:"version"`
	SavedAt     time.Time `json:"saved_at"`
	Manholes    int       `json:"manholes"`
	Connections int       `json:"connections"`
}

// Repository defines the interface for network snapshot storage
type Repository interface {
	// SaveNetwork stores doc under doc.Name, replacing an earlier snapshot
	SaveNetwork(ctx context.Context, doc *codec.Document) error
	LoadNetwork(ctx context.Context, name string) (*codec.Document, error)
	ListNetworks(ctx context.Context) ([]NetworkSummary, error)
	DeleteNetwork(ctx context.Context, name string) error

	// Close releases resources
	Close() error
}
