package app

import "bank_reviews/internal/domain"

// Deduper drops records structurally identical to one already seen in this
// run. State is scoped to a single organization and never shared.
//
// Provider-supplied ids key on (org, id). Derived ids key on the collapsed
// review text instead: two overlapping newest-window passes must collapse to
// one record even when their derived ids differ.
type Deduper struct {
	seenID   map[string]struct{}
	seenText map[string]struct{}
	dropped  int
}

func NewDeduper() *Deduper {
	return &Deduper{
		seenID:   make(map[string]struct{}),
		seenText: make(map[string]struct{}),
	}
}

// Keep reports whether rv is first of its identity; later duplicates are
// counted and dropped.
func (d *Deduper) Keep(rv domain.Review) bool {
	key := rv.ID
	set := d.seenID
	if rv.DerivedID {
		key = rv.Text
		set = d.seenText
	}
	if _, dup := set[key]; dup {
		d.dropped++
		return false
	}
	set[key] = struct{}{}
	return true
}

// Filter applies Keep over a batch, first occurrence wins.
func (d *Deduper) Filter(rs []domain.Review) []domain.Review {
	out := rs[:0:0]
	for _, rv := range rs {
		if d.Keep(rv) {
			out = append(out, rv)
		}
	}
	return out
}

func (d *Deduper) Dropped() int { return d.dropped }
