package vending

import "time"

// IsPast reports whether a service has already elapsed relative to now: its
// end instant is at or before the given moment. It is a pure function of
// (record, now); past/present status is never inferred from the revenue sign
// or any other field.
func IsPast(rec ServiceRecord, now time.Time) bool {
	return !rec.EndsAt().After(now)
}

// Partition routes each record into the past or present collection relative
// to now. Relative order within each collection follows input order. The
// result is a snapshot; it is not maintained as time advances.
//
// Sources that already return past and present as separate sets bypass this
// and feed Collections directly; both shapes are supported.
func Partition(records []ServiceRecord, now time.Time) Collections {
	c := Collections{
		Past:    make([]ServiceRecord, 0, len(records)),
		Present: make([]ServiceRecord, 0, len(records)),
	}
	for _, rec := range records {
		if IsPast(rec, now) {
			c.Past = append(c.Past, rec)
		} else {
			c.Present = append(c.Present, rec)
		}
	}
	return c
}
