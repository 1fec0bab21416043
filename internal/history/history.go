// Package history exposes the query-history surface used by the CLI and
// the MCP tool adapter: recording an executed query idempotently and
// listing past queries recent-first. Grounded in the original
// update_historial/get_historial pair; persistence itself lives in the
// Store.
package history

import (
	"github.com/go-ports/querysense/internal/models"
	"github.com/go-ports/querysense/internal/store"
)

// History wraps a Store's history table.
type History struct {
	store *store.Store
}

// New returns a History backed by s.
func New(s *store.Store) *History {
	return &History{store: s}
}

// Record upserts query into the history table, refreshing its timestamp
// if it was already present. Submitting the same query N times always
// leaves exactly one row.
func (h *History) Record(query string) error {
	return h.store.RecordHistory(query)
}

// List returns every recorded query, most recent first.
func (h *History) List() ([]models.HistoryEntry, error) {
	return h.store.ListHistory()
}
