package pipeline

import (
	"strings"
	"time"

	"mandi/internal/gateway/datagov"
	"mandi/internal/logger"
	"mandi/internal/types"

	"github.com/shopspring/decimal"
)

// Arrival date layouts the upstream feed has been seen using. Anything else
// is a rejection, never a placeholder date.
var dateLayouts = []string{
	"02/01/2006",
	"2006-01-02",
	"02-01-2006",
}

// RejectionStats counts records dropped during validation, by reason.
type RejectionStats struct {
	MissingField int
	BadPrice     int
	PriceRange   int
	BadDate      int
}

// Total is the overall number of rejected records.
func (s RejectionStats) Total() int {
	return s.MissingField + s.BadPrice + s.PriceRange + s.BadDate
}

// Validate coerces raw API records into typed records, dropping and counting
// anything that violates the data invariants: required fields present,
// prices numeric with min > 0 and max >= min, arrival date a real calendar
// date.
func Validate(raw []datagov.RawRecord) ([]types.Record, RejectionStats) {
	clean := make([]types.Record, 0, len(raw))
	var stats RejectionStats
	for _, r := range raw {
		rec, reason := validateOne(r)
		switch reason {
		case rejectNone:
			clean = append(clean, rec)
		case rejectMissingField:
			stats.MissingField++
		case rejectBadPrice:
			stats.BadPrice++
		case rejectPriceRange:
			stats.PriceRange++
		case rejectBadDate:
			stats.BadDate++
		}
	}
	if total := stats.Total(); total > 0 {
		logger.Warnf("validation rejected %d of %d records (missing=%d price=%d range=%d date=%d)",
			total, len(raw), stats.MissingField, stats.BadPrice, stats.PriceRange, stats.BadDate)
	}
	return clean, stats
}

type rejectReason int

const (
	rejectNone rejectReason = iota
	rejectMissingField
	rejectBadPrice
	rejectPriceRange
	rejectBadDate
)

func validateOne(r datagov.RawRecord) (types.Record, rejectReason) {
	state := strings.TrimSpace(r.State)
	district := strings.TrimSpace(r.District)
	market := strings.TrimSpace(r.Market)
	commodity := strings.TrimSpace(r.Commodity)
	if state == "" || district == "" || market == "" || commodity == "" {
		return types.Record{}, rejectMissingField
	}
	minPrice, err := parsePrice(r.MinPrice)
	if err != nil {
		return types.Record{}, rejectBadPrice
	}
	maxPrice, err := parsePrice(r.MaxPrice)
	if err != nil {
		return types.Record{}, rejectBadPrice
	}
	modalPrice, err := parsePrice(r.ModalPrice)
	if err != nil {
		return types.Record{}, rejectBadPrice
	}
	if minPrice.Sign() <= 0 || maxPrice.LessThan(minPrice) {
		return types.Record{}, rejectPriceRange
	}
	date, ok := parseArrivalDate(r.ArrivalDate)
	if !ok {
		return types.Record{}, rejectBadDate
	}
	return types.Record{
		State:       state,
		District:    district,
		Market:      market,
		Commodity:   commodity,
		Variety:     strings.TrimSpace(r.Variety),
		MinPrice:    minPrice,
		MaxPrice:    maxPrice,
		ModalPrice:  modalPrice,
		ArrivalDate: date,
	}, rejectNone
}

func parsePrice(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(s))
}

func parseArrivalDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
