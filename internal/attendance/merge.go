package attendance

import "time"

// Dirty records, per date key, when the last local mutation happened.
// Snapshot entries stamped before a marker are stale and are not applied.
type Dirty map[string]time.Time

// Mark records a local mutation of key at t. Markers only move forward.
func (d Dirty) Mark(key string, t time.Time) {
	if cur, ok := d[key]; ok && cur.After(t) {
		return
	}
	d[key] = t
}

// Merge overlays snapshot entries onto a copy of the local week.
// For each date the snapshot wins wholesale unless its stamp is older than
// the date's dirty marker or the local record's own stamp, so a record never
// moves backwards. Dates missing from the snapshot are left untouched.
func Merge(local Week, snap Snapshot, dirty Dirty) Week {
	merged, _ := Reconcile(local, snap, dirty)
	return merged
}

// Reconcile behaves like Merge and also returns the keys whose dirty markers
// are confirmed by the snapshot (entry stamped at or after the marker).
func Reconcile(local Week, snap Snapshot, dirty Dirty) (Week, []string) {
	merged := local.Clone()
	var confirmed []string

	for i, rec := range merged {
		key := rec.Key()
		e, ok := snap[key]
		if !ok {
			continue
		}
		if marker, pending := dirty[key]; pending {
			if e.UpdatedAt.Before(marker) {
				continue
			}
			confirmed = append(confirmed, key)
		}
		if e.UpdatedAt.Before(rec.UpdatedAt) {
			continue
		}
		merged[i] = rec.overlay(e)
	}

	return merged, confirmed
}
