package models

// DateLayout is the calendar-day format used by every record date. Records keep
// dates as plain strings so snapshots round-trip byte-compatibly with backups
// produced by earlier releases.
const DateLayout = "2006-01-02"

// PigStatus tracks where an animal sits in its raising lifecycle.
type PigStatus string

const (
	StatusRaising  PigStatus = "RAISING"
	StatusSold     PigStatus = "SOLD"
	StatusDeceased PigStatus = "DECEASED"
)

// Pig is a single registered animal.
type Pig struct {
	ID              string    `json:"id"`
	TagID           string    `json:"tagId"`
	DateOfBirth     string    `json:"dateOfBirth"`
	InitialWeightKg float64   `json:"initialWeight"`
	PurchaseCost    float64   `json:"purchaseCost,omitempty"`
	Status          PigStatus `json:"status"`
	Notes           string    `json:"notes,omitempty"`
}

// FeedRecord captures a feed purchase. PigID is optional; group feeding leaves
// it empty and the link is advisory only (never cleaned up on pig deletion).
type FeedRecord struct {
	ID            string  `json:"id"`
	PigID         string  `json:"pigId,omitempty"`
	DatePurchased string  `json:"datePurchased"`
	Cost          float64 `json:"cost"`
	AmountKg      float64 `json:"amountKg"`
	FeedType      string  `json:"feedType"`
}

// UnitPrice derives the per-kilogram cost of the purchase.
func (r FeedRecord) UnitPrice() float64 {
	if r.AmountKg <= 0 {
		return 0
	}
	return r.Cost / r.AmountKg
}

// SaleRecord captures a market transaction for one animal. For bulk sales the
// revenue is an equal share of the group total rather than weight times price.
type SaleRecord struct {
	ID             string  `json:"id"`
	PigID          string  `json:"pigId"`
	SaleDate       string  `json:"saleDate"`
	SaleWeightKg   float64 `json:"saleWeight"`
	SalePricePerKg float64 `json:"salePricePerKg"`
	TotalRevenue   float64 `json:"totalRevenue"`
}

// MiscRecord captures an operating expense outside feed and animal purchases.
type MiscRecord struct {
	ID       string  `json:"id"`
	Date     string  `json:"date"`
	Item     string  `json:"item"`
	Cost     float64 `json:"cost"`
	Category string  `json:"category"`
}

// FeedTypePresets are the suggestions offered by clients; the field stays free text.
var FeedTypePresets = []string{"Starter", "Grower", "Finisher", "Mixed/Slop"}

// MiscCategoryPresets are the suggested expense categories; also free text.
var MiscCategoryPresets = []string{"Medicine", "Vitamins", "Utilities", "Labor", "Equipment", "Other"}
