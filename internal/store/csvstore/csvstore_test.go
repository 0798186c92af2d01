package csvstore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"mandi/internal/types"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() *types.Dataset {
	date, _ := time.ParseInLocation(types.DateLayout, "2024-01-15", time.UTC)
	return &types.Dataset{Records: []types.Record{
		{
			State:       "Punjab",
			District:    "Ludhiana",
			Market:      "Khanna",
			Commodity:   "Wheat",
			Variety:     "Lokwan",
			MinPrice:    decimal.NewFromInt(2000),
			MaxPrice:    decimal.NewFromInt(2200),
			ModalPrice:  decimal.RequireFromString("2100.50"),
			ArrivalDate: date,
		},
		{
			State:       "Maharashtra",
			District:    "Pune",
			Market:      "Pune Market",
			Commodity:   "Onion, Red", // comma must survive CSV quoting
			MinPrice:    decimal.NewFromInt(900),
			MaxPrice:    decimal.NewFromInt(1400),
			ModalPrice:  decimal.NewFromInt(1200),
			ArrivalDate: date,
		},
	}}
}

func TestWriteThenReadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "master.csv")
	store, err := New(path)
	require.NoError(t, err)

	want := sampleDataset()
	require.NoError(t, store.Write(want))

	got, err := store.Read()
	require.NoError(t, err)
	require.Equal(t, want.Len(), got.Len())
	for i := range want.Records {
		w, g := want.Records[i], got.Records[i]
		assert.Equal(t, w.Key(), g.Key())
		assert.True(t, w.ModalPrice.Equal(g.ModalPrice), "modal price %s != %s", w.ModalPrice, g.ModalPrice)
		assert.Equal(t, w.Variety, g.Variety)
	}
}

func TestReadMissingFileReturnsEmptyDataset(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "absent.csv"))
	require.NoError(t, err)

	ds, err := store.Read()
	require.NoError(t, err)
	assert.Zero(t, ds.Len())
}

func TestWriteLeavesNoTempFilesBehind(t *testing.T) {
	dir := t.TempDir()
	store, err := New(filepath.Join(dir, "master.csv"))
	require.NoError(t, err)
	require.NoError(t, store.Write(sampleDataset()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "master.csv", entries[0].Name())
}

func TestWriteReplacesPreviousContentAtomically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "master.csv")
	store, err := New(path)
	require.NoError(t, err)

	first := sampleDataset()
	require.NoError(t, store.Write(first))

	second := sampleDataset()
	second.Records = second.Records[:1]
	require.NoError(t, store.Write(second))

	got, err := store.Read()
	require.NoError(t, err)
	assert.Equal(t, 1, got.Len())
}

func TestWriteEmitsHeaderRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "master.csv")
	store, err := New(path)
	require.NoError(t, err)
	require.NoError(t, store.Write(sampleDataset()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "state,district,market,commodity,variety,min_price,max_price,modal_price,arrival_date")
}

func TestReadSkipsCorruptRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "master.csv")
	content := "state,district,market,commodity,variety,min_price,max_price,modal_price,arrival_date\n" +
		"Punjab,Ludhiana,Khanna,Wheat,,2000,2200,2100,2024-01-15\n" +
		"Punjab,Ludhiana,Khanna,Rice,,oops,2200,2100,2024-01-15\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	store, err := New(path)
	require.NoError(t, err)
	ds, err := store.Read()
	require.NoError(t, err)
	assert.Equal(t, 1, ds.Len())
}
