// Package ledger owns the authoritative in-memory snapshot. Every mutation is
// applied through the store functions, swapped in under a lock and then
// committed to local persistence as an explicit step.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/piggerypro/piggery/internal/domain/models"
	"github.com/piggerypro/piggery/internal/metrics"
	"github.com/piggerypro/piggery/internal/store"
)

// Persister is the subset of the local repository the ledger commits through.
type Persister interface {
	SaveSnapshot(ctx context.Context, snapshot models.Snapshot) error
}

// Service holds the current snapshot and serializes mutations.
type Service struct {
	mu       sync.RWMutex
	snapshot models.Snapshot
	repo     Persister
	logger   *zap.Logger
	now      func() time.Time
}

// NewService wires the ledger around an initial snapshot, usually the one
// loaded from local persistence at startup.
func NewService(initial models.Snapshot, repo Persister, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{snapshot: initial, repo: repo, logger: logger, now: time.Now}
}

// Current returns the snapshot. The store's immutable discipline makes the
// returned value safe to read without further copying.
func (s *Service) Current() models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// commit swaps in the new snapshot and flushes it to local persistence. A
// failed write is logged and counted; the in-memory state stays the source of
// truth for the rest of the session.
func (s *Service) commit(ctx context.Context, next models.Snapshot, collection, op string) {
	s.snapshot = next
	metrics.RecordMutation(collection, op)
	if s.repo == nil {
		return
	}
	if err := s.repo.SaveSnapshot(ctx, next); err != nil {
		metrics.PersistFailureCounter.Inc()
		s.logger.Error("local persist failed", zap.String("collection", collection), zap.String("op", op), zap.Error(err))
	}
}

// RegisterPigs mints a batch from the template and appends it. Quantity above
// one produces auto-suffixed tags.
func (s *Service) RegisterPigs(ctx context.Context, template models.Pig, quantity int) ([]models.Pig, error) {
	if template.TagID == "" {
		return nil, fmt.Errorf("tagId is required")
	}
	batch := store.NewPigBatch(template, quantity)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.commit(ctx, store.AddPigs(s.snapshot, batch), "pigs", "add")
	return batch, nil
}

// UpdatePig replaces an existing registration.
func (s *Service) UpdatePig(ctx context.Context, pig models.Pig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := store.UpdatePig(s.snapshot, pig)
	if err != nil {
		return err
	}
	s.commit(ctx, next, "pigs", "update")
	return nil
}

// DeletePig removes a pig and cascades to its sale records.
func (s *Service) DeletePig(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := store.DeletePig(s.snapshot, id)
	if err != nil {
		return err
	}
	s.commit(ctx, next, "pigs", "delete")
	return nil
}

// AddSale records an individual sale; revenue defaults to weight times price
// when not set explicitly.
func (s *Service) AddSale(ctx context.Context, sale models.SaleRecord) (models.SaleRecord, error) {
	if sale.ID == "" {
		sale.ID = uuid.NewString()
	}
	if sale.TotalRevenue == 0 {
		sale.TotalRevenue = sale.SaleWeightKg * sale.SalePricePerKg
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := store.AddSale(s.snapshot, sale)
	if err != nil {
		return models.SaleRecord{}, err
	}
	s.commit(ctx, next, "sales", "add")
	return sale, nil
}

// AddBulkSale distributes one group transaction into equal per-animal sales.
// The whole group is applied atomically: any rejected animal aborts the batch.
func (s *Service) AddBulkSale(ctx context.Context, pigIDs []string, totalRevenue, totalWeightKg float64, saleDate string) ([]models.SaleRecord, error) {
	if len(pigIDs) == 0 {
		return nil, fmt.Errorf("no animals selected")
	}
	if totalRevenue <= 0 {
		return nil, fmt.Errorf("total revenue must be positive")
	}
	sales := store.DistributeBulkSale(pigIDs, totalRevenue, totalWeightKg, saleDate)

	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.snapshot
	for _, sale := range sales {
		var err error
		next, err = store.AddSale(next, sale)
		if err != nil {
			return nil, fmt.Errorf("animal %s: %w", sale.PigID, err)
		}
	}
	s.commit(ctx, next, "sales", "add_bulk")
	return sales, nil
}

// UpdateSale replaces an existing sale record.
func (s *Service) UpdateSale(ctx context.Context, sale models.SaleRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := store.UpdateSale(s.snapshot, sale)
	if err != nil {
		return err
	}
	s.commit(ctx, next, "sales", "update")
	return nil
}

// DeleteSale removes a sale and reverts the named pig to RAISING.
func (s *Service) DeleteSale(ctx context.Context, id, pigID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := store.DeleteSale(s.snapshot, id, pigID)
	if err != nil {
		return err
	}
	s.commit(ctx, next, "sales", "delete")
	return nil
}

// AddFeed records a feed purchase.
func (s *Service) AddFeed(ctx context.Context, record models.FeedRecord) (models.FeedRecord, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commit(ctx, store.AddFeed(s.snapshot, record), "feeds", "add")
	return record, nil
}

// UpdateFeed replaces an existing feed record.
func (s *Service) UpdateFeed(ctx context.Context, record models.FeedRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := store.UpdateFeed(s.snapshot, record)
	if err != nil {
		return err
	}
	s.commit(ctx, next, "feeds", "update")
	return nil
}

// DeleteFeed removes a feed record.
func (s *Service) DeleteFeed(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := store.DeleteFeed(s.snapshot, id)
	if err != nil {
		return err
	}
	s.commit(ctx, next, "feeds", "delete")
	return nil
}

// AddMisc records a miscellaneous expense.
func (s *Service) AddMisc(ctx context.Context, record models.MiscRecord) (models.MiscRecord, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commit(ctx, store.AddMisc(s.snapshot, record), "misc", "add")
	return record, nil
}

// UpdateMisc replaces an existing misc record.
func (s *Service) UpdateMisc(ctx context.Context, record models.MiscRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := store.UpdateMisc(s.snapshot, record)
	if err != nil {
		return err
	}
	s.commit(ctx, next, "misc", "update")
	return nil
}

// DeleteMisc removes a misc record.
func (s *Service) DeleteMisc(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := store.DeleteMisc(s.snapshot, id)
	if err != nil {
		return err
	}
	s.commit(ctx, next, "misc", "delete")
	return nil
}

// Replace adopts a snapshot wholesale, used after cloud restore or import.
// The caller is responsible for having confirmed the destructive replacement.
func (s *Service) Replace(ctx context.Context, snapshot models.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commit(ctx, snapshot, "snapshot", "replace")
}

// Export serializes the snapshot pretty-printed and returns the dated
// download filename.
func (s *Service) Export() ([]byte, string, error) {
	snapshot := s.Current()
	payload, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return nil, "", fmt.Errorf("encode export: %w", err)
	}
	filename := fmt.Sprintf("piggery-data-%s.json", s.now().UTC().Format(models.DateLayout))
	return payload, filename, nil
}

// Import decodes an uploaded backup and replaces the snapshot. A malformed
// payload fails with a FormatError and leaves the current state untouched.
func (s *Service) Import(ctx context.Context, data []byte) error {
	snapshot, err := models.DecodeSnapshot(data)
	if err != nil {
		return err
	}
	s.Replace(ctx, snapshot)
	return nil
}
