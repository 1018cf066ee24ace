package eventmodels

import (
	"fmt"
	"strings"
	"time"
)

const CsvTimeLayout = "2006-01-02 15:04:05"

// SpotQuoteCsvDTO is one row of a long-format spot quote file.
type SpotQuoteCsvDTO struct {
	Time     string  `csv:"time"`
	Currency string  `csv:"currency"`
	Price    float64 `csv:"price"`
}

// ToModel interprets times without an offset as wall clock times in loc.
func (dto *SpotQuoteCsvDTO) ToModel(loc *time.Location) (Observation, error) {
	t, err := ParseCsvTime(dto.Time, loc)
	if err != nil {
		return Observation{}, fmt.Errorf("SpotQuoteCsvDTO.ToModel: %w", err)
	}

	return Observation{
		Time:   t,
		Column: strings.ToLower(strings.TrimSpace(dto.Currency)),
		Value:  dto.Price,
	}, nil
}

func NewSpotQuoteCsvDTO(o Observation) *SpotQuoteCsvDTO {
	return &SpotQuoteCsvDTO{
		Time:     o.Time.Format(time.RFC3339),
		Currency: o.Column,
		Price:    o.Value,
	}
}

// CurrencyMetaCsvDTO tells whether a currency is quoted as USDXXX, i.e. the
// number of units of XXX per USD.
type CurrencyMetaCsvDTO struct {
	Iso    string `csv:"iso"`
	UsdXxx int    `csv:"usdxxx"`
}

// PolicyMeasureCsvDTO is one announced policy measure. Only comments
// mentioning a cut become RateCuts.
type PolicyMeasureCsvDTO struct {
	Time     string `csv:"time"`
	Currency string `csv:"currency"`
	Comment  string `csv:"comment"`
}

// StockMetaCsvDTO maps a vendor ticker to a readable name. For MSCI indexes
// the ticker is kept only when Name and NameCheck agree.
type StockMetaCsvDTO struct {
	Ticker    string `csv:"ticker"`
	Name      string `csv:"name"`
	NameCheck string `csv:"name_check"`
}

// StockQuoteCsvDTO is one row of a long-format stock index file.
type StockQuoteCsvDTO struct {
	Time   string  `csv:"time"`
	Ticker string  `csv:"ticker"`
	Price  float64 `csv:"price"`
}

type PivotRowCsvDTO struct {
	Period    int     `csv:"period"`
	Asset     string  `csv:"asset"`
	EventTime string  `csv:"event_time"`
	Value     float64 `csv:"value"`
}

type BootstrapBandCsvDTO struct {
	Period   int     `csv:"period"`
	Observed float64 `csv:"observed"`
	Lower    float64 `csv:"lower"`
	Median   float64 `csv:"median"`
	Upper    float64 `csv:"upper"`
	PValue   float64 `csv:"p_value"`
}

var csvTimeLayouts = []string{
	CsvTimeLayout,
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

func ParseCsvTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), nil
	}

	for _, layout := range csvTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("ParseCsvTime: unrecognized time %q", s)
}
