package models

import (
	"encoding/json"

	"github.com/piggerypro/piggery/internal/domain/apperr"
)

// Snapshot is the complete set of record collections. It is the unit of local
// persistence, export/import and cloud sync: always moved as one whole, never
// partially.
type Snapshot struct {
	Pigs        []Pig        `json:"pigs"`
	FeedRecords []FeedRecord `json:"feedRecords"`
	SaleRecords []SaleRecord `json:"saleRecords"`
	MiscRecords []MiscRecord `json:"miscRecords"`
}

// EmptySnapshot returns a snapshot with all four collections present but empty.
func EmptySnapshot() Snapshot {
	return Snapshot{
		Pigs:        []Pig{},
		FeedRecords: []FeedRecord{},
		SaleRecords: []SaleRecord{},
		MiscRecords: []MiscRecord{},
	}
}

// Clone returns a deep copy. Store mutations work on copies so callers holding
// a previous snapshot never observe changes underneath them.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Pigs:        make([]Pig, len(s.Pigs)),
		FeedRecords: make([]FeedRecord, len(s.FeedRecords)),
		SaleRecords: make([]SaleRecord, len(s.SaleRecords)),
		MiscRecords: make([]MiscRecord, len(s.MiscRecords)),
	}
	copy(out.Pigs, s.Pigs)
	copy(out.FeedRecords, s.FeedRecords)
	copy(out.SaleRecords, s.SaleRecords)
	copy(out.MiscRecords, s.MiscRecords)
	return out
}

// DecodeSnapshot is the total deserialization function for snapshot payloads.
// A root that is not a JSON object fails with a FormatError; inside the object
// each of the four collections is decoded independently, so a missing or
// malformed field falls back to an empty collection without blanking out the
// others.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(data, &root); err != nil {
		return Snapshot{}, &apperr.FormatError{Reason: "payload is not a JSON object", Err: err}
	}
	// A JSON null unmarshals into a nil map without error; it is still not an
	// object and must not pass for an empty snapshot.
	if root == nil {
		return Snapshot{}, &apperr.FormatError{Reason: "payload is not a JSON object"}
	}

	out := EmptySnapshot()
	if raw, ok := root["pigs"]; ok {
		var pigs []Pig
		if err := json.Unmarshal(raw, &pigs); err == nil && pigs != nil {
			out.Pigs = pigs
		}
	}
	if raw, ok := root["feedRecords"]; ok {
		var feeds []FeedRecord
		if err := json.Unmarshal(raw, &feeds); err == nil && feeds != nil {
			out.FeedRecords = feeds
		}
	}
	if raw, ok := root["saleRecords"]; ok {
		var sales []SaleRecord
		if err := json.Unmarshal(raw, &sales); err == nil && sales != nil {
			out.SaleRecords = sales
		}
	}
	if raw, ok := root["miscRecords"]; ok {
		var misc []MiscRecord
		if err := json.Unmarshal(raw, &misc); err == nil && misc != nil {
			out.MiscRecords = misc
		}
	}
	return out, nil
}
