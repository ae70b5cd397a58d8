package store

import (
	"errors"
	"testing"

	"github.com/piggerypro/piggery/internal/domain/apperr"
	"github.com/piggerypro/piggery/internal/domain/models"
)

func seedSnapshot() models.Snapshot {
	return models.Snapshot{
		Pigs: []models.Pig{
			{ID: "pig-1", TagID: "S-101", Status: models.StatusRaising},
			{ID: "pig-2", TagID: "S-102", Status: models.StatusRaising},
		},
		FeedRecords: []models.FeedRecord{
			{ID: "feed-1", DatePurchased: "2026-01-01", Cost: 500, AmountKg: 25, FeedType: "Grower"},
		},
		SaleRecords: []models.SaleRecord{},
		MiscRecords: []models.MiscRecord{
			{ID: "misc-1", Date: "2026-01-02", Item: "Dewormer", Cost: 150, Category: "Medicine"},
		},
	}
}

func TestNewPigBatch_SuffixesTags(t *testing.T) {
	batch := NewPigBatch(models.Pig{TagID: "S-1"}, 3)
	if len(batch) != 3 {
		t.Fatalf("expected 3 pigs, got %d", len(batch))
	}
	wantTags := []string{"S-1-1", "S-1-2", "S-1-3"}
	for i, pig := range batch {
		if pig.TagID != wantTags[i] {
			t.Errorf("pig %d: tag = %q, want %q", i, pig.TagID, wantTags[i])
		}
		if pig.ID == "" {
			t.Errorf("pig %d: missing generated id", i)
		}
		if pig.Status != models.StatusRaising {
			t.Errorf("pig %d: status = %q, want RAISING", i, pig.Status)
		}
	}
}

func TestNewPigBatch_SingleKeepsBaseTag(t *testing.T) {
	batch := NewPigBatch(models.Pig{TagID: "S-1"}, 1)
	if len(batch) != 1 {
		t.Fatalf("expected 1 pig, got %d", len(batch))
	}
	if batch[0].TagID != "S-1" {
		t.Fatalf("tag = %q, want S-1", batch[0].TagID)
	}
}

func TestAddSale_MarksPigSold(t *testing.T) {
	s := seedSnapshot()
	next, err := AddSale(s, models.SaleRecord{ID: "sale-1", PigID: "pig-1", SaleWeightKg: 80, SalePricePerKg: 150, TotalRevenue: 12000})
	if err != nil {
		t.Fatalf("AddSale: %v", err)
	}
	if got := next.Pigs[0].Status; got != models.StatusSold {
		t.Fatalf("pig status = %q, want SOLD", got)
	}
	if len(next.SaleRecords) != 1 {
		t.Fatalf("sale records = %d, want 1", len(next.SaleRecords))
	}
	// Immutability: the input snapshot is untouched.
	if s.Pigs[0].Status != models.StatusRaising {
		t.Fatal("input snapshot was mutated")
	}
	if len(s.SaleRecords) != 0 {
		t.Fatal("input sale records were mutated")
	}
}

func TestAddSale_UnknownAnimalRejected(t *testing.T) {
	_, err := AddSale(seedSnapshot(), models.SaleRecord{ID: "sale-1", PigID: "nope"})
	if !errors.Is(err, apperr.ErrAnimalNotFound) {
		t.Fatalf("err = %v, want ErrAnimalNotFound", err)
	}
}

func TestAddSale_SecondSaleForSameAnimalRejected(t *testing.T) {
	s := seedSnapshot()
	s, err := AddSale(s, models.SaleRecord{ID: "sale-1", PigID: "pig-1"})
	if err != nil {
		t.Fatalf("first AddSale: %v", err)
	}
	if _, err := AddSale(s, models.SaleRecord{ID: "sale-2", PigID: "pig-1"}); !errors.Is(err, apperr.ErrAnimalAlreadySold) {
		t.Fatalf("err = %v, want ErrAnimalAlreadySold", err)
	}
}

func TestDeleteSale_RevertsPigToRaising(t *testing.T) {
	s := seedSnapshot()
	s, err := AddSale(s, models.SaleRecord{ID: "sale-1", PigID: "pig-1"})
	if err != nil {
		t.Fatalf("AddSale: %v", err)
	}
	s, err = DeleteSale(s, "sale-1", "pig-1")
	if err != nil {
		t.Fatalf("DeleteSale: %v", err)
	}
	if got := s.Pigs[0].Status; got != models.StatusRaising {
		t.Fatalf("pig status = %q, want RAISING", got)
	}
	if len(s.SaleRecords) != 0 {
		t.Fatalf("sale records = %d, want 0", len(s.SaleRecords))
	}
}

func TestDeletePig_CascadesToSales(t *testing.T) {
	s := seedSnapshot()
	s, err := AddSale(s, models.SaleRecord{ID: "sale-1", PigID: "pig-1"})
	if err != nil {
		t.Fatalf("AddSale: %v", err)
	}
	s, err = DeletePig(s, "pig-1")
	if err != nil {
		t.Fatalf("DeletePig: %v", err)
	}
	for _, sale := range s.SaleRecords {
		if sale.PigID == "pig-1" {
			t.Fatalf("sale %s still references deleted pig", sale.ID)
		}
	}
	if len(s.Pigs) != 1 {
		t.Fatalf("pigs = %d, want 1", len(s.Pigs))
	}
	// Feed links are advisory and survive the deletion.
	if len(s.FeedRecords) != 1 {
		t.Fatalf("feed records = %d, want 1", len(s.FeedRecords))
	}
}

func TestDeletePig_MissingID(t *testing.T) {
	if _, err := DeletePig(seedSnapshot(), "nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdatePig_MissingIDIsPreconditionViolation(t *testing.T) {
	if _, err := UpdatePig(seedSnapshot(), models.Pig{ID: "nope"}); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDistributeBulkSale_EqualShares(t *testing.T) {
	sales := DistributeBulkSale([]string{"a", "b", "c"}, 3000, 150, "2026-02-01")
	if len(sales) != 3 {
		t.Fatalf("sales = %d, want 3", len(sales))
	}
	for _, sale := range sales {
		if sale.TotalRevenue != 1000 {
			t.Errorf("pig %s: revenue = %v, want 1000", sale.PigID, sale.TotalRevenue)
		}
		if sale.SaleWeightKg != 50 {
			t.Errorf("pig %s: weight = %v, want 50", sale.PigID, sale.SaleWeightKg)
		}
		if sale.SalePricePerKg != 20 {
			t.Errorf("pig %s: price/kg = %v, want 20", sale.PigID, sale.SalePricePerKg)
		}
		if sale.SaleDate != "2026-02-01" {
			t.Errorf("pig %s: date = %q", sale.PigID, sale.SaleDate)
		}
	}
}

func TestDistributeBulkSale_ZeroWeightGuard(t *testing.T) {
	sales := DistributeBulkSale([]string{"a", "b"}, 2000, 0, "2026-02-01")
	for _, sale := range sales {
		if sale.SalePricePerKg != 0 {
			t.Fatalf("price/kg = %v, want 0 on zero total weight", sale.SalePricePerKg)
		}
	}
}

func TestFeedCRUD(t *testing.T) {
	s := seedSnapshot()
	s = AddFeed(s, models.FeedRecord{ID: "feed-2", DatePurchased: "2026-01-03", Cost: 300, AmountKg: 10})
	if len(s.FeedRecords) != 2 {
		t.Fatalf("feed records = %d, want 2", len(s.FeedRecords))
	}

	s, err := UpdateFeed(s, models.FeedRecord{ID: "feed-2", DatePurchased: "2026-01-04", Cost: 320, AmountKg: 10})
	if err != nil {
		t.Fatalf("UpdateFeed: %v", err)
	}
	if s.FeedRecords[1].Cost != 320 {
		t.Fatalf("cost = %v, want 320", s.FeedRecords[1].Cost)
	}

	if _, err := UpdateFeed(s, models.FeedRecord{ID: "nope"}); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	s, err = DeleteFeed(s, "feed-2")
	if err != nil {
		t.Fatalf("DeleteFeed: %v", err)
	}
	if len(s.FeedRecords) != 1 {
		t.Fatalf("feed records = %d, want 1", len(s.FeedRecords))
	}
}

func TestMiscCRUD(t *testing.T) {
	s := seedSnapshot()
	s = AddMisc(s, models.MiscRecord{ID: "misc-2", Item: "Rope", Cost: 50, Category: "Equipment"})
	if len(s.MiscRecords) != 2 {
		t.Fatalf("misc records = %d, want 2", len(s.MiscRecords))
	}

	if _, err := DeleteMisc(s, "nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	s, err := DeleteMisc(s, "misc-2")
	if err != nil {
		t.Fatalf("DeleteMisc: %v", err)
	}
	if len(s.MiscRecords) != 1 {
		t.Fatalf("misc records = %d, want 1", len(s.MiscRecords))
	}
}

func TestFeedUnitPrice(t *testing.T) {
	r := models.FeedRecord{Cost: 500, AmountKg: 25}
	if got := r.UnitPrice(); got != 20.0 {
		t.Fatalf("unit price = %v, want 20.0", got)
	}
	zero := models.FeedRecord{Cost: 500, AmountKg: 0}
	if got := zero.UnitPrice(); got != 0 {
		t.Fatalf("unit price = %v, want 0 on zero amount", got)
	}
}
