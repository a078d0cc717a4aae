package domain

// Ledger is the ordered collection of review records as persisted. Order is
// meaningful: saves and merges preserve the positions of existing records and
// append new ones at the end.
type Ledger []ReviewRecord

// Find returns the index of the record with the given key, or -1. Empty
// records are findable here even though AsMap prunes them.
func (l Ledger) Find(key PathKey) int {
	for i, rec := range l {
		if rec.Key() == key {
			return i
		}
	}
	return -1
}

// Upsert replaces the record with the same key in place, or appends when no
// record matches. The receiver is returned for the append case.
func (l Ledger) Upsert(rec ReviewRecord) Ledger {
	if i := l.Find(rec.Key()); i >= 0 {
		l[i] = rec
		return l
	}
	return append(l, rec)
}

// AsMap indexes the ledger by key for classification. Records that carry no
// information are skipped, so a file whose record was cleared classifies the
// same as a file that was never touched. When duplicate keys exist the last
// record wins.
func (l Ledger) AsMap() map[PathKey]ReviewRecord {
	m := make(map[PathKey]ReviewRecord, len(l))
	for _, rec := range l {
		if rec.IsEmpty() {
			continue
		}
		m[rec.Key()] = rec
	}
	return m
}

// Keys returns every key in ledger order, including empty records.
func (l Ledger) Keys() []PathKey {
	out := make([]PathKey, 0, len(l))
	for _, rec := range l {
		out = append(out, rec.Key())
	}
	return out
}

// MergeLedgers reconciles two independently evolved ledgers. Records keep the
// base ledger's order; when both sides carry a key the overlay's record wins
// in the base position; overlay-only keys are appended in overlay order.
func MergeLedgers(base, overlay Ledger) Ledger {
	overlayByKey := make(map[PathKey]ReviewRecord, len(overlay))
	for _, rec := range overlay {
		overlayByKey[rec.Key()] = rec
	}

	merged := make(Ledger, 0, len(base)+len(overlay))
	seen := make(map[PathKey]struct{}, len(base))
	for _, rec := range base {
		key := rec.Key()
		if ov, ok := overlayByKey[key]; ok {
			rec = ov
		}
		merged = append(merged, rec)
		seen[key] = struct{}{}
	}
	for _, rec := range overlay {
		if _, ok := seen[rec.Key()]; ok {
			continue
		}
		merged = append(merged, rec)
	}
	return merged
}
