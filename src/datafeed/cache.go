package datafeed

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/jiaming2012/mp-fx-covid19/src/eventmodels"
	"github.com/jiaming2012/mp-fx-covid19/src/utils"
)

// ParquetObservation is the on-disk layout of a cached panel.
type ParquetObservation struct {
	Timestamp int64   `parquet:"name=timestamp, type=INT64"`
	Column    string  `parquet:"name=column, type=BYTE_ARRAY, convertedtype=UTF8"`
	Value     float64 `parquet:"name=value, type=DOUBLE"`
}

// Cache memoises loaded panels as parquet files. Entries are keyed by the
// loader name, the location and a hash of its source files, so editing a
// source invalidates the entry. A Cache with an empty Dir does not cache.
type Cache struct {
	Dir      string
	Location *time.Location
}

func NewCache(dir string, loc *time.Location) *Cache {
	return &Cache{Dir: dir, Location: loc}
}

// Panel returns the cached panel for name and sources, calling load and
// storing its result on a miss.
func (c *Cache) Panel(name string, sources []string, load func() (*eventmodels.Panel, error)) (*eventmodels.Panel, error) {
	if c == nil || c.Dir == "" {
		return load()
	}

	hash, err := utils.HashFiles(sources...)
	if err != nil {
		return nil, fmt.Errorf("Cache.Panel: %w", err)
	}

	path := filepath.Join(c.Dir, fmt.Sprintf("%s-%s-%s.parquet", name, c.locationKey(), hash[:16]))

	if _, err := os.Stat(path); err == nil {
		p, err := c.read(path)
		if err == nil {
			log.WithField("path", path).Debugf("Cache hit for %s", name)
			return p, nil
		}

		log.Warnf("Cache.Panel: failed to read %s, reloading: %v", path, err)
	}

	p, err := load()
	if err != nil {
		return nil, err
	}

	if p.IsEmpty() {
		return p, nil
	}

	if err := c.write(path, p); err != nil {
		log.Warnf("Cache.Panel: failed to write %s: %v", path, err)
	}

	return p, nil
}

func (c *Cache) locationKey() string {
	if c.Location == nil {
		return "UTC"
	}

	return strings.ReplaceAll(c.Location.String(), "/", "_")
}

func (c *Cache) write(path string, p *eventmodels.Panel) error {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("failed to create parquet file: %w", err)
	}
	defer fw.Close()

	pw, err := writer.NewParquetWriter(fw, new(ParquetObservation), 4)
	if err != nil {
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}

	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	// Every cell is written, NaN included, so the read panel keeps the
	// full index and column set.
	for i, t := range p.Index {
		for j, col := range p.Columns {
			record := ParquetObservation{
				Timestamp: t.UnixNano(),
				Column:    col,
				Value:     p.Values[i][j],
			}

			if err := pw.Write(record); err != nil {
				pw.WriteStop()
				return fmt.Errorf("failed to write parquet record: %w", err)
			}
		}
	}

	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("failed to finalize parquet writing: %w", err)
	}

	return nil
}

func (c *Cache) read(path string) (*eventmodels.Panel, error) {
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(ParquetObservation), 4)
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet reader: %w", err)
	}
	defer pr.ReadStop()

	records := make([]ParquetObservation, int(pr.GetNumRows()))
	if err := pr.Read(&records); err != nil {
		return nil, fmt.Errorf("failed to read parquet records: %w", err)
	}

	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}

	obs := make([]eventmodels.Observation, 0, len(records))
	for _, r := range records {
		obs = append(obs, eventmodels.Observation{
			Time:   time.Unix(0, r.Timestamp).In(loc),
			Column: r.Column,
			Value:  r.Value,
		})
	}

	return eventmodels.PanelFromObservations(obs), nil
}
