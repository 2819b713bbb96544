// Package pipeline fetches data and saves it, with each step behind its own
// capability so the handler only coordinates.
package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/reglet-dev/capkit"
)

// Capability names.
const (
	Network  = "network"
	Database = "database"
)

// NetworkHandler fetches data.
type NetworkHandler struct {
	Payload []byte
}

// FetchData returns the payload.
func (n *NetworkHandler) FetchData(context.Context) ([]byte, error) {
	return append([]byte(nil), n.Payload...), nil
}

// DatabaseHandler stores records.
type DatabaseHandler struct {
	mu      sync.Mutex
	records [][]byte
}

// Save stores data.
func (d *DatabaseHandler) Save(_ context.Context, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.records = append(d.records, data)
	return nil
}

// Records lists stored data.
func (d *DatabaseHandler) Records() [][]byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([][]byte(nil), d.records...)
}

// Register declares both capabilities and registers the handlers as "http" and "sql".
func Register(reg *capkit.Registry, network *NetworkHandler, db *DatabaseHandler) error {
	if err := reg.Define(Network, "fetchData"); err != nil {
		return err
	}
	if err := reg.Define(Database, "save"); err != nil {
		return err
	}
	if err := reg.RegisterImplementation(Network, capkit.FromMethods("http", network)); err != nil {
		return err
	}
	return reg.RegisterImplementation(Database, capkit.FromMethods("sql", db))
}

// Handler moves data from the network to the database.
type Handler struct {
	network  *capkit.Handle
	database *capkit.Handle
}

// NewHandler creates a Handler over bound network and database handles.
func NewHandler(network, database *capkit.Handle) *Handler {
	return &Handler{network: network, database: database}
}

// Handle fetches data and saves it.
func (h *Handler) Handle(ctx context.Context) error {
	data, err := h.network.Invoke(ctx, "fetchData")
	if err != nil {
		return fmt.Errorf("fetching data: %w", err)
	}
	if _, err := h.database.Invoke(ctx, "save", data); err != nil {
		return fmt.Errorf("saving data: %w", err)
	}
	return nil
}
