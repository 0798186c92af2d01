package types

import "sort"

// Dataset is the full persisted collection of records, one per identity key.
type Dataset struct {
	Records []Record
}

// Len reports the number of records.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// Index builds a key → position map over Records. Positions refer to the
// current Records slice and go stale after any mutation.
func (d *Dataset) Index() map[Key]int {
	idx := make(map[Key]int, len(d.Records))
	for i, r := range d.Records {
		idx[r.Key()] = i
	}
	return idx
}

// Sort orders records by arrival date, then state, district, market and
// commodity. Merge output is sorted so successive master files diff cleanly.
func (d *Dataset) Sort() {
	sort.SliceStable(d.Records, func(i, j int) bool {
		a, b := d.Records[i], d.Records[j]
		if !a.ArrivalDate.Equal(b.ArrivalDate) {
			return a.ArrivalDate.Before(b.ArrivalDate)
		}
		ka, kb := a.Key(), b.Key()
		if ka.State != kb.State {
			return ka.State < kb.State
		}
		if ka.District != kb.District {
			return ka.District < kb.District
		}
		if ka.Market != kb.Market {
			return ka.Market < kb.Market
		}
		return ka.Commodity < kb.Commodity
	})
}
