package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// SnapshotKey names the single document the aggregate is persisted under.
const SnapshotKey = "smart-campus-state-v2"

// Snapshot is the serialized form of the whole aggregate.
type Snapshot struct {
	Categories []EncodingRule `json:"categories"`
	Locations  []EncodingRule `json:"locations"`
	LostItems  []LostItem     `json:"lostItems"`
}

// legacyOutdoor lists preset locations that were outdoor before the flag
// was stored on the rule itself.
var legacyOutdoor = map[string]bool{
	"l_playground": true,
	"l_court":      true,
}

// FixedLocations returns the preset campus locations with empty codes.
func FixedLocations() []EncodingRule {
	return []EncodingRule{
		{ID: "l_spring", Label: "春楼"},
		{ID: "l_summer", Label: "夏楼"},
		{ID: "l_autumn", Label: "秋楼"},
		{ID: "l_winter", Label: "冬楼"},
		{ID: "l_canteen", Label: "食堂"},
		{ID: "l_gym", Label: "体育馆"},
		{ID: "l_playground", Label: "操场", Outdoor: true},
		{ID: "l_court", Label: "篮球场", Outdoor: true},
	}
}

// DefaultSnapshot returns the state used on first start and after a parse failure.
func DefaultSnapshot() Snapshot {
	return Snapshot{
		Categories: []EncodingRule{},
		Locations:  FixedLocations(),
		LostItems:  []LostItem{},
	}
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Categories: append([]EncodingRule{}, s.Categories...),
		Locations:  append([]EncodingRule{}, s.Locations...),
		LostItems:  make([]LostItem, 0, len(s.LostItems)),
	}
	for _, item := range s.LostItems {
		out.LostItems = append(out.LostItems, item.Clone())
	}
	return out
}

// EncodeSnapshot serializes the snapshot document.
func EncodeSnapshot(s Snapshot) ([]byte, error) {
	return json.Marshal(MigrateSnapshot(s))
}

// DecodeSnapshot parses a snapshot document. Empty input yields the default
// snapshot. Input that is not a snapshot document yields the default snapshot
// together with a PersistenceParseError. A readable document with
// inconsistent records keeps its valid records; the rest are dropped as
// RepairSnapshot does and reported through a PersistenceParseError.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return DefaultSnapshot(), nil
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return DefaultSnapshot(), PersistenceParseError{Err: err}
	}
	repaired, err := RepairSnapshot(MigrateSnapshot(s))
	if err != nil {
		return repaired, PersistenceParseError{Err: err}
	}
	return repaired, nil
}

// MigrateSnapshot fills missing collections and upgrades legacy documents.
func MigrateSnapshot(s Snapshot) Snapshot {
	s = s.Clone()
	if len(s.Locations) == 0 {
		s.Locations = FixedLocations()
	}
	flagged := false
	for _, loc := range s.Locations {
		if loc.Outdoor {
			flagged = true
			break
		}
	}
	if !flagged {
		for i := range s.Locations {
			if legacyOutdoor[s.Locations[i].ID] {
				s.Locations[i].Outdoor = true
			}
		}
	}
	for i := range s.LostItems {
		if s.LostItems[i].Status == "" {
			s.LostItems[i].Status = StatusLost
		}
	}
	return s
}

// ValidateSnapshot checks id uniqueness, per-namespace code uniqueness and
// claim metadata consistency.
func ValidateSnapshot(s Snapshot) error {
	_, err := RepairSnapshot(s)
	return err
}

// RepairSnapshot returns s without its inconsistent records and an error
// describing each one:
//   - rules with an empty or repeated id are dropped;
//   - a code already held in the namespace is cleared on the later rule;
//   - items with an empty or repeated id, an unknown status or claim
//     metadata that disagrees with the status are dropped.
func RepairSnapshot(s Snapshot) (Snapshot, error) {
	var errs []error
	out := Snapshot{
		Categories: repairRules(NamespaceCategory, s.Categories, &errs),
		Locations:  repairRules(NamespaceLocation, s.Locations, &errs),
		LostItems:  make([]LostItem, 0, len(s.LostItems)),
	}
	itemIDs := make(map[string]bool, len(s.LostItems))
	for _, item := range s.LostItems {
		switch {
		case item.ID == "" || itemIDs[item.ID]:
			errs = append(errs, fmt.Errorf("lost item id %q missing or duplicated", item.ID))
			continue
		case !item.Status.Valid():
			errs = append(errs, fmt.Errorf("lost item %s has unknown status %q", item.ID, item.Status))
		case item.Claimed() != (item.ClaimTimestamp != nil):
			errs = append(errs, fmt.Errorf("lost item %s claim metadata inconsistent with status %s", item.ID, item.Status))
		default:
			out.LostItems = append(out.LostItems, item.Clone())
		}
		itemIDs[item.ID] = true
	}
	return out, errors.Join(errs...)
}

func repairRules(ns Namespace, rules []EncodingRule, errs *[]error) []EncodingRule {
	out := make([]EncodingRule, 0, len(rules))
	ids := make(map[string]bool, len(rules))
	codes := make(map[string]string, len(rules))
	for _, rule := range rules {
		if rule.ID == "" {
			*errs = append(*errs, fmt.Errorf("%s with empty id", ns))
			continue
		}
		if ids[rule.ID] {
			*errs = append(*errs, fmt.Errorf("duplicate %s id %s", ns, rule.ID))
			continue
		}
		ids[rule.ID] = true
		if holder, ok := codes[rule.Code]; ok && rule.Code != "" {
			*errs = append(*errs, DuplicateCodeError{Namespace: ns, Code: rule.Code, HolderID: holder})
			rule.Code = ""
		} else if rule.Code != "" {
			codes[rule.Code] = rule.ID
		}
		out = append(out, rule)
	}
	return out
}
