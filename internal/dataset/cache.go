package dataset

import (
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/nshruti113/flow-anomaly-dashboard/internal/detection"
	"github.com/nshruti113/flow-anomaly-dashboard/internal/models"
	"go.uber.org/zap"
)

// Dataset is a loaded slice of the flow CSV together with its baseline.
// It is immutable once returned by the cache.
type Dataset struct {
	Path     string
	MaxRows  int
	Records  []models.FlowRecord
	RowsRead int
	Dropped  int
	Baseline models.FeatureBaseline
	LoadedAt time.Time
}

// LabelCount is the number of records carrying one ground-truth label.
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// LabelCounts returns the ground-truth distribution, largest first.
func (d *Dataset) LabelCounts() []LabelCount {
	counts := make(map[string]int)
	for _, rec := range d.Records {
		counts[rec.Label]++
	}

	out := make([]LabelCount, 0, len(counts))
	for label, n := range counts {
		out = append(out, LabelCount{Label: label, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// Preview returns up to n records from the start of the dataset.
func (d *Dataset) Preview(n int) []models.FlowRecord {
	if n <= 0 || n > len(d.Records) {
		n = len(d.Records)
	}
	return d.Records[:n]
}

// Sample draws one record uniformly at random.
func (d *Dataset) Sample(r *rand.Rand) models.FlowRecord {
	return d.Records[r.IntN(len(d.Records))]
}

type cacheKey struct {
	path    string
	maxRows int
}

// LoadFunc reads a dataset file.
type LoadFunc func(path string, maxRows int) (*Result, error)

// Cache memoizes loaded datasets and their baselines by (path, row bound).
type Cache struct {
	mu      sync.Mutex
	entries map[cacheKey]*Dataset
	load    LoadFunc
	logger  *zap.Logger
}

func NewCache(logger *zap.Logger) *Cache {
	return NewCacheWithLoader(LoadFile, logger)
}

func NewCacheWithLoader(load LoadFunc, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		entries: make(map[cacheKey]*Dataset),
		load:    load,
		logger:  logger,
	}
}

// Get returns the dataset for path and maxRows, loading it and estimating its
// baseline on first use. Failures are not cached.
func (c *Cache) Get(path string, maxRows int) (*Dataset, error) {
	key := cacheKey{path: path, maxRows: maxRows}

	c.mu.Lock()
	defer c.mu.Unlock()

	if ds, ok := c.entries[key]; ok {
		return ds, nil
	}

	start := time.Now()
	result, err := c.load(path, maxRows)
	if err != nil {
		return nil, err
	}

	baseline, err := detection.EstimateBaseline(result.Records)
	if err != nil {
		return nil, err
	}

	ds := &Dataset{
		Path:     path,
		MaxRows:  maxRows,
		Records:  result.Records,
		RowsRead: result.RowsRead,
		Dropped:  result.Dropped,
		Baseline: baseline,
		LoadedAt: time.Now(),
	}
	c.entries[key] = ds

	c.logger.Info("dataset loaded",
		zap.String("path", path),
		zap.Int("max_rows", maxRows),
		zap.Int("rows_read", result.RowsRead),
		zap.Int("records", len(result.Records)),
		zap.Int("dropped", result.Dropped),
		zap.Duration("took", time.Since(start)),
	)

	return ds, nil
}

// Len returns the number of memoized datasets.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
