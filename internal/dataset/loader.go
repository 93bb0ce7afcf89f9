package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/nshruti113/flow-anomaly-dashboard/internal/models"
)

var (
	// ErrMissingResource is returned when the dataset file does not exist.
	ErrMissingResource = errors.New("dataset not found")

	// ErrMissingColumn is returned when the header lacks a selected column.
	ErrMissingColumn = errors.New("missing column")
)

// Result is the outcome of reading a flow CSV.
type Result struct {
	Records  []models.FlowRecord
	RowsRead int
	Dropped  int
}

// LoadFile reads at most maxRows data rows from the CSV at path.
// A non-positive maxRows reads the whole file.
func LoadFile(path string, maxRows int) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingResource, path)
		}
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	return Read(f, maxRows)
}

// Read parses flow records from CSV. Headers are whitespace-trimmed, only the
// tracked features and the label are kept, and rows holding an empty,
// unparsable or non-finite value in a tracked feature are dropped.
func Read(r io.Reader, maxRows int) (*Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%w: empty file", ErrMissingColumn)
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := columns[name]; !dup {
			columns[name] = i
		}
	}

	features := models.TrackedFeatures()
	featureIdx := make([]int, len(features))
	for i, name := range features {
		idx, ok := columns[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
		featureIdx[i] = idx
	}
	labelIdx, ok := columns[models.LabelColumn]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, models.LabelColumn)
	}

	result := &Result{Records: make([]models.FlowRecord, 0)}

	for maxRows <= 0 || result.RowsRead < maxRows {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", result.RowsRead+1, err)
		}
		result.RowsRead++

		rec, ok := parseRow(row, features, featureIdx, labelIdx)
		if !ok {
			result.Dropped++
			continue
		}
		result.Records = append(result.Records, rec)
	}

	return result, nil
}

func parseRow(row []string, features []string, featureIdx []int, labelIdx int) (models.FlowRecord, bool) {
	if labelIdx >= len(row) {
		return models.FlowRecord{}, false
	}

	label := strings.TrimSpace(row[labelIdx])
	if label == "" {
		return models.FlowRecord{}, false
	}

	rec := models.FlowRecord{
		Features: make(map[string]float64, len(features)),
		Label:    label,
	}

	for i, name := range features {
		idx := featureIdx[i]
		if idx >= len(row) {
			return models.FlowRecord{}, false
		}
		v, ok := parseValue(row[idx])
		if !ok {
			return models.FlowRecord{}, false
		}
		rec.Features[name] = v
	}

	return rec, true
}

// parseValue treats empty, unparsable, NaN and ±Infinity cells as missing.
func parseValue(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
