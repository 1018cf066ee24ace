package eventmodels

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type WorkbookSourceYAML struct {
	Path          string `yaml:"path"`
	DataSheet     string `yaml:"dataSheet"`
	ColnamesSheet string `yaml:"colnamesSheet"`
	MetaSheet     string `yaml:"metaSheet"`
	SkipRows      int    `yaml:"skipRows"`
}

type CsvSourceYAML struct {
	Path     string `yaml:"path"`
	MetaPath string `yaml:"metaPath"`
}

// StockSourceYAML is a long-format stock index file and its ticker meta
// file. Group is "msci" or "other".
type StockSourceYAML struct {
	Group    string `yaml:"group"`
	Path     string `yaml:"path"`
	MetaPath string `yaml:"metaPath"`
}

type SourcesYAML struct {
	Bloomberg []WorkbookSourceYAML `yaml:"bloomberg"`
	Eikon     *WorkbookSourceYAML  `yaml:"eikon,omitempty"`
	// EikonShiftHours moves Eikon wall clock times before they are read as
	// Zurich time.
	EikonShiftHours *int              `yaml:"eikonShiftHours,omitempty"`
	Csv             []CsvSourceYAML   `yaml:"csv"`
	Stocks          []StockSourceYAML `yaml:"stocks"`
}

type BootstrapYAML struct {
	Replications int     `yaml:"replications"`
	BlockSize    int     `yaml:"blockSize"`
	Confidence   float64 `yaml:"confidence"`
	Seed         int64   `yaml:"seed"`
	Workers      int     `yaml:"workers"`
}

type StudyConfigYAML struct {
	DataDir        string        `yaml:"dataDir"`
	CacheDir       string        `yaml:"cacheDir"`
	OutDir         string        `yaml:"outDir"`
	Timezone       string        `yaml:"timezone"`
	Sources        SourcesYAML   `yaml:"sources"`
	EventsPath     string        `yaml:"events"`
	Currencies     []string      `yaml:"currencies"`
	Window         Window        `yaml:"window"`
	EventDateIndex int           `yaml:"eventDateIndex"`
	ReturnScale    float64       `yaml:"returnScale"`
	Cumulative     bool          `yaml:"cumulative"`
	Bootstrap      BootstrapYAML `yaml:"bootstrap"`
}

func NewDefaultStudyConfig() *StudyConfigYAML {
	return &StudyConfigYAML{
		DataDir:        "data",
		OutDir:         "output",
		Timezone:       "Europe/Zurich",
		EventsPath:     "measures.xlsx",
		Window:         Window{Start: -4, End: 8},
		EventDateIndex: 1,
		ReturnScale:    1e4,
		Cumulative:     true,
		Bootstrap: BootstrapYAML{
			Replications: 500,
			Confidence:   0.9,
			Seed:         1,
			Workers:      4,
		},
	}
}

// LoadStudyConfig reads a YAML file on top of the defaults.
func LoadStudyConfig(path string) (*StudyConfigYAML, error) {
	cfg := NewDefaultStudyConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadStudyConfig: failed to read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("LoadStudyConfig: failed to unmarshal %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("LoadStudyConfig: %w", err)
	}

	return cfg, nil
}

func (c *StudyConfigYAML) Validate() error {
	if err := c.Window.Validate(); err != nil {
		return err
	}

	if c.EventDateIndex != 0 && c.EventDateIndex != 1 {
		return InvalidEventDateIndexErr
	}

	if c.Bootstrap.Confidence <= 0 || c.Bootstrap.Confidence >= 1 {
		return InvalidConfidenceErr
	}

	if len(c.Sources.Bloomberg) == 0 && c.Sources.Eikon == nil && len(c.Sources.Csv) == 0 {
		return NoDataSourceErr
	}

	for i, cur := range c.Currencies {
		c.Currencies[i] = strings.ToLower(strings.TrimSpace(cur))
	}

	return nil
}

// ResolvePath joins relative paths onto DataDir.
func (c *StudyConfigYAML) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}

	return filepath.Join(c.DataDir, p)
}
