package studyapi

import (
	"math"
	"net/url"
	"strings"

	"github.com/gorilla/schema"

	"github.com/jiaming2012/mp-fx-covid19/src/eventmodels"
	"github.com/jiaming2012/mp-fx-covid19/src/eventstudy"
	"github.com/jiaming2012/mp-fx-covid19/src/utils"
)

var decoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}()

// StudyRequestDTO is the query string of GET /eventstudy. Unset fields fall
// back to the study config.
type StudyRequestDTO struct {
	Start          *int   `schema:"start"`
	End            *int   `schema:"end"`
	EventDateIndex *int   `schema:"event_date_index"`
	Currencies     string `schema:"currencies"`
	Replications   *int   `schema:"replications"`
	Cumulative     *bool  `schema:"cumulative"`
}

func DecodeStudyRequest(query url.Values) (*StudyRequestDTO, error) {
	req := &StudyRequestDTO{}
	if err := decoder.Decode(req, query); err != nil {
		return nil, err
	}

	return req, nil
}

type studyRequest struct {
	Window         eventmodels.Window
	EventDateIndex int
	Currencies     []string
	Replications   int
	Cumulative     bool
}

func (dto *StudyRequestDTO) ToModel(cfg *eventmodels.StudyConfigYAML) (*studyRequest, error) {
	req := &studyRequest{
		Window:         cfg.Window,
		EventDateIndex: cfg.EventDateIndex,
		Currencies:     cfg.Currencies,
		Replications:   cfg.Bootstrap.Replications,
		Cumulative:     cfg.Cumulative,
	}

	if dto.Start != nil {
		req.Window.Start = *dto.Start
	}

	if dto.End != nil {
		req.Window.End = *dto.End
	}

	if err := req.Window.Validate(); err != nil {
		return nil, err
	}

	if dto.EventDateIndex != nil {
		req.EventDateIndex = *dto.EventDateIndex
	}

	if req.EventDateIndex != 0 && req.EventDateIndex != 1 {
		return nil, eventmodels.InvalidEventDateIndexErr
	}

	if strings.TrimSpace(dto.Currencies) != "" {
		req.Currencies = utils.ParseCurrencies(dto.Currencies)
	}

	if dto.Replications != nil {
		req.Replications = *dto.Replications
	}

	if req.Replications < 0 || req.Replications > MaxReplications {
		return nil, ReplicationsOutOfRangeErr
	}

	if dto.Cumulative != nil {
		req.Cumulative = *dto.Cumulative
	}

	return req, nil
}

type BandDTO struct {
	Period   int      `json:"period"`
	Observed *float64 `json:"observed"`
	Lower    *float64 `json:"lower"`
	Median   *float64 `json:"median"`
	Upper    *float64 `json:"upper"`
	PValue   *float64 `json:"p_value"`
}

type StudyResponseDTO struct {
	RunID          string             `json:"run_id"`
	Window         eventmodels.Window `json:"window"`
	EventDateIndex int                `json:"event_date_index"`
	Cumulative     bool               `json:"cumulative"`
	EventCounts    map[string]int     `json:"event_counts"`
	Periods        []int              `json:"periods"`
	MeanPath       []*float64         `json:"mean_path"`
	Replications   int                `json:"replications"`
	Confidence     float64            `json:"confidence,omitempty"`
	Bands          []BandDTO          `json:"bands,omitempty"`
}

// nullable maps NaN to a JSON null.
func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}

	return &v
}

func nullableSlice(vs []float64) []*float64 {
	out := make([]*float64, len(vs))
	for i, v := range vs {
		out[i] = nullable(v)
	}

	return out
}

func NewBandDTOs(result *eventstudy.BootstrapResult) []BandDTO {
	out := make([]BandDTO, 0, len(result.Bands))
	for _, b := range result.Bands {
		out = append(out, BandDTO{
			Period:   b.Period,
			Observed: nullable(b.Observed),
			Lower:    nullable(b.Lower),
			Median:   nullable(b.Median),
			Upper:    nullable(b.Upper),
			PValue:   nullable(b.PValue),
		})
	}

	return out
}
