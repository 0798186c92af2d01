package pipeline

import (
	"testing"
	"time"

	"mandi/internal/types"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(state, district, market, commodity, date string, modal int64) types.Record {
	d, err := time.ParseInLocation(types.DateLayout, date, time.UTC)
	if err != nil {
		panic(err)
	}
	price := decimal.NewFromInt(modal)
	return types.Record{
		State:       state,
		District:    district,
		Market:      market,
		Commodity:   commodity,
		MinPrice:    price.Sub(decimal.NewFromInt(5)),
		MaxPrice:    price.Add(decimal.NewFromInt(5)),
		ModalPrice:  price,
		ArrivalDate: d,
	}
}

func TestMergeLatestFetchWins(t *testing.T) {
	existing := &types.Dataset{Records: []types.Record{
		record("StateA", "DistrictA", "MarketA", "Wheat", "2024-01-01", 20),
	}}
	fresh := []types.Record{
		record("StateA", "DistrictA", "MarketA", "Wheat", "2024-01-01", 22),
	}

	merged := Merge(existing, fresh)
	require.Equal(t, 1, merged.Len(), "exactly one record per identity key")
	assert.Equal(t, "22", merged.Records[0].ModalPrice.String())
}

func TestMergeLaterRecordInBatchWins(t *testing.T) {
	fresh := []types.Record{
		record("StateA", "DistrictA", "MarketA", "Wheat", "2024-01-01", 20),
		record("StateA", "DistrictA", "MarketA", "Wheat", "2024-01-01", 25),
	}
	merged := Merge(&types.Dataset{}, fresh)
	require.Equal(t, 1, merged.Len())
	assert.Equal(t, "25", merged.Records[0].ModalPrice.String())
}

func TestMergeKeepsNonConflictingRecords(t *testing.T) {
	existing := &types.Dataset{Records: []types.Record{
		record("StateA", "DistrictA", "MarketA", "Wheat", "2024-01-01", 20),
	}}
	fresh := []types.Record{
		record("StateB", "DistrictB", "MarketB", "Rice", "2024-01-02", 30),
		record("StateA", "DistrictA", "MarketA", "Wheat", "2024-01-02", 21),
	}
	merged := Merge(existing, fresh)
	assert.Equal(t, 3, merged.Len())
}

func TestMergeIsIdempotent(t *testing.T) {
	existing := &types.Dataset{Records: []types.Record{
		record("StateA", "DistrictA", "MarketA", "Wheat", "2024-01-01", 20),
		record("StateB", "DistrictB", "MarketB", "Rice", "2024-01-01", 40),
	}}
	fresh := []types.Record{
		record("StateA", "DistrictA", "MarketA", "Wheat", "2024-01-01", 22),
		record("StateC", "DistrictC", "MarketC", "Maize", "2024-01-03", 18),
	}

	once := Merge(existing, fresh)
	twice := Merge(once, fresh)
	assert.Equal(t, once, twice)
}

func TestMergeKeyIsCaseInsensitive(t *testing.T) {
	existing := &types.Dataset{Records: []types.Record{
		record("Punjab", "Ludhiana", "Khanna", "Wheat", "2024-01-01", 20),
	}}
	fresh := []types.Record{
		record("PUNJAB", "LUDHIANA", "KHANNA", "WHEAT", "2024-01-01", 22),
	}
	merged := Merge(existing, fresh)
	require.Equal(t, 1, merged.Len())
	assert.Equal(t, "22", merged.Records[0].ModalPrice.String())
}

func TestMergeSortsOutputByDate(t *testing.T) {
	fresh := []types.Record{
		record("StateA", "DistrictA", "MarketA", "Wheat", "2024-02-01", 20),
		record("StateA", "DistrictA", "MarketA", "Wheat", "2024-01-01", 22),
	}
	merged := Merge(nil, fresh)
	require.Equal(t, 2, merged.Len())
	assert.True(t, merged.Records[0].ArrivalDate.Before(merged.Records[1].ArrivalDate))
}
