package types

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the canonical on-disk representation of arrival dates.
const DateLayout = "2006-01-02"

// Record is one mandi price observation for a commodity on a given day.
type Record struct {
	State      string
	District   string
	Market     string
	Commodity  string
	Variety    string // optional, informational only
	MinPrice   decimal.Decimal
	MaxPrice   decimal.Decimal
	ModalPrice decimal.Decimal
	// ArrivalDate carries date precision only; the time part is always
	// midnight UTC.
	ArrivalDate time.Time
}

// Key identifies a record. At most one record per key survives a merge.
type Key struct {
	State     string
	District  string
	Market    string
	Commodity string
	Date      string // DateLayout
}

// Key builds the identity key. Location and commodity fields are compared
// case-insensitively because the upstream feed is inconsistent about casing.
func (r Record) Key() Key {
	return Key{
		State:     normalizeKeyPart(r.State),
		District:  normalizeKeyPart(r.District),
		Market:    normalizeKeyPart(r.Market),
		Commodity: normalizeKeyPart(r.Commodity),
		Date:      r.ArrivalDate.Format(DateLayout),
	}
}

func normalizeKeyPart(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
