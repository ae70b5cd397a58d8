// Package store implements the record mutations over a Snapshot. Every
// function takes the current snapshot by value and returns a new one; inputs
// are never mutated, so callers holding the previous snapshot keep a stable
// view.
package store

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/piggerypro/piggery/internal/domain/apperr"
	"github.com/piggerypro/piggery/internal/domain/models"
)

// NewPigBatch mints a batch of registrations from one form submission. With
// quantity above one the base tag is suffixed per animal: "S-1" with quantity
// 3 yields tags S-1-1, S-1-2 and S-1-3.
func NewPigBatch(template models.Pig, quantity int) []models.Pig {
	if quantity < 1 {
		quantity = 1
	}
	batch := make([]models.Pig, 0, quantity)
	for i := 0; i < quantity; i++ {
		pig := template
		pig.ID = uuid.NewString()
		if quantity > 1 {
			pig.TagID = fmt.Sprintf("%s-%d", template.TagID, i+1)
		}
		if pig.Status == "" {
			pig.Status = models.StatusRaising
		}
		batch = append(batch, pig)
	}
	return batch
}

// AddPigs appends the batch to the registry.
func AddPigs(s models.Snapshot, batch []models.Pig) models.Snapshot {
	out := s.Clone()
	out.Pigs = append(out.Pigs, batch...)
	return out
}

// UpdatePig replaces the pig with the same ID.
func UpdatePig(s models.Snapshot, pig models.Pig) (models.Snapshot, error) {
	out := s.Clone()
	for i := range out.Pigs {
		if out.Pigs[i].ID == pig.ID {
			out.Pigs[i] = pig
			return out, nil
		}
	}
	return models.Snapshot{}, apperr.ErrNotFound
}

// DeletePig removes the pig and cascades to every sale referencing it. Feed
// records keep their optional pig link.
func DeletePig(s models.Snapshot, id string) (models.Snapshot, error) {
	out := s.Clone()
	pigs := out.Pigs[:0]
	found := false
	for _, p := range out.Pigs {
		if p.ID == id {
			found = true
			continue
		}
		pigs = append(pigs, p)
	}
	if !found {
		return models.Snapshot{}, apperr.ErrNotFound
	}
	out.Pigs = pigs

	sales := out.SaleRecords[:0]
	for _, sale := range out.SaleRecords {
		if sale.PigID == id {
			continue
		}
		sales = append(sales, sale)
	}
	out.SaleRecords = sales
	return out, nil
}

// AddSale records the sale and flips the referenced pig to SOLD. The pig must
// exist and must not already carry an active sale.
func AddSale(s models.Snapshot, sale models.SaleRecord) (models.Snapshot, error) {
	out := s.Clone()
	pigIdx := -1
	for i := range out.Pigs {
		if out.Pigs[i].ID == sale.PigID {
			pigIdx = i
			break
		}
	}
	if pigIdx == -1 {
		return models.Snapshot{}, apperr.ErrAnimalNotFound
	}
	if out.Pigs[pigIdx].Status == models.StatusSold {
		return models.Snapshot{}, apperr.ErrAnimalAlreadySold
	}
	for _, existing := range out.SaleRecords {
		if existing.PigID == sale.PigID {
			return models.Snapshot{}, apperr.ErrAnimalAlreadySold
		}
	}

	out.Pigs[pigIdx].Status = models.StatusSold
	out.SaleRecords = append(out.SaleRecords, sale)
	return out, nil
}

// UpdateSale replaces the sale with the same ID.
func UpdateSale(s models.Snapshot, sale models.SaleRecord) (models.Snapshot, error) {
	out := s.Clone()
	for i := range out.SaleRecords {
		if out.SaleRecords[i].ID == sale.ID {
			out.SaleRecords[i] = sale
			return out, nil
		}
	}
	return models.Snapshot{}, apperr.ErrNotFound
}

// DeleteSale removes the sale and resets the named pig to RAISING.
func DeleteSale(s models.Snapshot, id, pigID string) (models.Snapshot, error) {
	out := s.Clone()
	sales := out.SaleRecords[:0]
	found := false
	for _, sale := range out.SaleRecords {
		if sale.ID == id {
			found = true
			continue
		}
		sales = append(sales, sale)
	}
	if !found {
		return models.Snapshot{}, apperr.ErrNotFound
	}
	out.SaleRecords = sales

	for i := range out.Pigs {
		if out.Pigs[i].ID == pigID {
			out.Pigs[i].Status = models.StatusRaising
		}
	}
	return out, nil
}

// DistributeBulkSale splits one group transaction into equal per-animal sale
// records: revenue and weight are divided by the head count and the price per
// kilogram is the group ratio shared by every record. Animals are not assumed
// to weigh equally; the equal split is an accepted approximation for revenue
// accounting only.
func DistributeBulkSale(pigIDs []string, totalRevenue, totalWeightKg float64, saleDate string) []models.SaleRecord {
	count := len(pigIDs)
	if count == 0 {
		return nil
	}
	perRevenue := totalRevenue / float64(count)
	perWeight := totalWeightKg / float64(count)
	pricePerKg := 0.0
	if totalWeightKg > 0 {
		pricePerKg = totalRevenue / totalWeightKg
	}

	sales := make([]models.SaleRecord, 0, count)
	for _, pigID := range pigIDs {
		sales = append(sales, models.SaleRecord{
			ID:             uuid.NewString(),
			PigID:          pigID,
			SaleDate:       saleDate,
			SaleWeightKg:   perWeight,
			SalePricePerKg: pricePerKg,
			TotalRevenue:   perRevenue,
		})
	}
	return sales
}

// AddFeed appends a feed purchase.
func AddFeed(s models.Snapshot, record models.FeedRecord) models.Snapshot {
	out := s.Clone()
	out.FeedRecords = append(out.FeedRecords, record)
	return out
}

// UpdateFeed replaces the feed record with the same ID.
func UpdateFeed(s models.Snapshot, record models.FeedRecord) (models.Snapshot, error) {
	out := s.Clone()
	for i := range out.FeedRecords {
		if out.FeedRecords[i].ID == record.ID {
			out.FeedRecords[i] = record
			return out, nil
		}
	}
	return models.Snapshot{}, apperr.ErrNotFound
}

// DeleteFeed removes the feed record by ID.
func DeleteFeed(s models.Snapshot, id string) (models.Snapshot, error) {
	out := s.Clone()
	records := out.FeedRecords[:0]
	found := false
	for _, r := range out.FeedRecords {
		if r.ID == id {
			found = true
			continue
		}
		records = append(records, r)
	}
	if !found {
		return models.Snapshot{}, apperr.ErrNotFound
	}
	out.FeedRecords = records
	return out, nil
}

// AddMisc appends a miscellaneous expense.
func AddMisc(s models.Snapshot, record models.MiscRecord) models.Snapshot {
	out := s.Clone()
	out.MiscRecords = append(out.MiscRecords, record)
	return out
}

// UpdateMisc replaces the misc record with the same ID.
func UpdateMisc(s models.Snapshot, record models.MiscRecord) (models.Snapshot, error) {
	out := s.Clone()
	for i := range out.MiscRecords {
		if out.MiscRecords[i].ID == record.ID {
			out.MiscRecords[i] = record
			return out, nil
		}
	}
	return models.Snapshot{}, apperr.ErrNotFound
}

// DeleteMisc removes the misc record by ID.
func DeleteMisc(s models.Snapshot, id string) (models.Snapshot, error) {
	out := s.Clone()
	records := out.MiscRecords[:0]
	found := false
	for _, r := range out.MiscRecords {
		if r.ID == id {
			found = true
			continue
		}
		records = append(records, r)
	}
	if !found {
		return models.Snapshot{}, apperr.ErrNotFound
	}
	out.MiscRecords = records
	return out, nil
}
