// Package csvstore persists the master dataset as a flat CSV file and
// guarantees readers never observe a half-written file: every write goes to
// a temp file in the destination directory and is renamed into place.
package csvstore

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mandi/internal/logger"
	"mandi/internal/types"

	"github.com/shopspring/decimal"
)

var header = []string{
	"state", "district", "market", "commodity", "variety",
	"min_price", "max_price", "modal_price", "arrival_date",
}

// Store reads and writes the master CSV at a fixed path.
type Store struct {
	path string
}

// New returns a store bound to path. The parent directory is created lazily
// on first write.
func New(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("csv store path cannot be empty")
	}
	return &Store{path: path}, nil
}

// Path reports the destination file.
func (s *Store) Path() string {
	return s.path
}

// Read loads the persisted dataset, or an empty dataset if the file does not
// exist yet. Rows that fail to parse are skipped with a warning so a few
// corrupt lines cannot wedge the pipeline.
func (s *Store) Read() (*types.Dataset, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &types.Dataset{}, nil
		}
		return nil, fmt.Errorf("opening %s failed: %w", s.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(header)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s failed: %w", s.path, err)
	}
	ds := &types.Dataset{}
	skipped := 0
	for i, row := range rows {
		if i == 0 && isHeader(row) {
			continue
		}
		rec, err := decodeRow(row)
		if err != nil {
			skipped++
			continue
		}
		ds.Records = append(ds.Records, rec)
	}
	if skipped > 0 {
		logger.Warnf("skipped %d unparseable rows while loading %s", skipped, s.path)
	}
	return ds, nil
}

// Write atomically replaces the destination with the given dataset.
func (s *Store) Write(ds *types.Dataset) error {
	if ds == nil {
		return fmt.Errorf("nil dataset")
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating data directory failed: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file failed: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once the rename has happened

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return err
	}
	for _, rec := range ds.Records {
		if err := w.Write(encodeRow(rec)); err != nil {
			tmp.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("writing rows failed: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing temp file failed: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replacing %s failed: %w", s.path, err)
	}
	return nil
}

func isHeader(row []string) bool {
	return len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[0]), "state")
}

func encodeRow(rec types.Record) []string {
	return []string{
		rec.State,
		rec.District,
		rec.Market,
		rec.Commodity,
		rec.Variety,
		rec.MinPrice.String(),
		rec.MaxPrice.String(),
		rec.ModalPrice.String(),
		rec.ArrivalDate.Format(types.DateLayout),
	}
}

func decodeRow(row []string) (types.Record, error) {
	if len(row) != len(header) {
		return types.Record{}, fmt.Errorf("expected %d fields, got %d", len(header), len(row))
	}
	minPrice, err := decimal.NewFromString(row[5])
	if err != nil {
		return types.Record{}, err
	}
	maxPrice, err := decimal.NewFromString(row[6])
	if err != nil {
		return types.Record{}, err
	}
	modalPrice, err := decimal.NewFromString(row[7])
	if err != nil {
		return types.Record{}, err
	}
	date, err := time.ParseInLocation(types.DateLayout, row[8], time.UTC)
	if err != nil {
		return types.Record{}, err
	}
	return types.Record{
		State:       row[0],
		District:    row[1],
		Market:      row[2],
		Commodity:   row[3],
		Variety:     row[4],
		MinPrice:    minPrice,
		MaxPrice:    maxPrice,
		ModalPrice:  modalPrice,
		ArrivalDate: date,
	}, nil
}
