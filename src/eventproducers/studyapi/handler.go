package studyapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"gorm.io/gorm"

	"github.com/jiaming2012/mp-fx-covid19/src/descriptives"
	"github.com/jiaming2012/mp-fx-covid19/src/eventmodels"
	"github.com/jiaming2012/mp-fx-covid19/src/eventproducers"
	"github.com/jiaming2012/mp-fx-covid19/src/eventpubsub"
	"github.com/jiaming2012/mp-fx-covid19/src/eventservices"
	"github.com/jiaming2012/mp-fx-covid19/src/eventstudy"
	"github.com/jiaming2012/mp-fx-covid19/src/utils"
)

const MaxReplications = 5000

var ReplicationsOutOfRangeErr = fmt.Errorf("replications must be between 0 and %d", MaxReplications)
var RunStoreDisabledErr = fmt.Errorf("no run store configured")

// Handler serves event studies over data loaded once at startup. Runs with
// a bootstrap are stored when a database is given.
type Handler struct {
	cfg    *eventmodels.StudyConfigYAML
	inputs *eventservices.StudyInputs
	db     *gorm.DB
	hub    *progressHub
}

func NewHandler(cfg *eventmodels.StudyConfigYAML, inputs *eventservices.StudyInputs, db *gorm.DB) (*Handler, error) {
	h := &Handler{
		cfg:    cfg,
		inputs: inputs,
		db:     db,
		hub:    newProgressHub(),
	}

	if err := eventpubsub.Subscribe(eventpubsub.BootstrapReplicationDoneEvent, h.hub.publish); err != nil {
		return nil, fmt.Errorf("NewHandler: failed to subscribe: %w", err)
	}

	return h, nil
}

func (h *Handler) getEvents(w http.ResponseWriter, r *http.Request) {
	cuts := h.inputs.Cuts
	if c := r.URL.Query().Get("currencies"); c != "" {
		cuts = cuts.Filter(utils.ParseCurrencies(c))
	}

	if cuts == nil {
		cuts = eventmodels.RateCuts{}
	}

	if err := eventproducers.SetResponse(&cuts, w); err != nil {
		log.Errorf("getEvents: failed to set response: %v", err)
	}
}

func (h *Handler) getEventsTable(w http.ResponseWriter, r *http.Request) {
	html, err := descriptives.DescribeEvents(h.inputs.Cuts)
	if err != nil {
		h.setError("internal", http.StatusInternalServerError, err, w)
		return
	}

	if err := eventproducers.SetHTMLResponse(html, w); err != nil {
		log.Errorf("getEventsTable: failed to set response: %v", err)
	}
}

func (h *Handler) getAvailability(w http.ResponseWriter, r *http.Request) {
	rows := descriptives.AvailabilityMap(h.inputs.Prices)
	if err := eventproducers.SetResponse(&rows, w); err != nil {
		log.Errorf("getAvailability: failed to set response: %v", err)
	}
}

func (h *Handler) getEventStudy(w http.ResponseWriter, r *http.Request) {
	dto, err := DecodeStudyRequest(r.URL.Query())
	if err != nil {
		h.setError("request", http.StatusBadRequest, err, w)
		return
	}

	req, err := dto.ToModel(h.cfg)
	if err != nil {
		h.setError("request", http.StatusBadRequest, err, w)
		return
	}

	study, err := eventservices.BuildEventStudy(h.inputs, eventservices.StudyParams{
		Currencies:     req.Currencies,
		Window:         req.Window,
		EventDateIndex: req.EventDateIndex,
	})
	if err != nil {
		h.setError("study", studyErrorStatus(err), err, w)
		return
	}

	runID := uuid.New()
	periods, mean := study.MeanPath(req.Cumulative)

	resp := StudyResponseDTO{
		RunID:          runID.String(),
		Window:         req.Window,
		EventDateIndex: req.EventDateIndex,
		Cumulative:     req.Cumulative,
		EventCounts:    study.EventCounts(),
		Periods:        periods,
		MeanPath:       nullableSlice(mean),
		Replications:   req.Replications,
	}

	if req.Replications > 0 {
		opts := eventstudy.BootstrapOptions{
			RunID:        runID.String(),
			Replications: req.Replications,
			BlockSize:    h.cfg.Bootstrap.BlockSize,
			Confidence:   h.cfg.Bootstrap.Confidence,
			Seed:         h.cfg.Bootstrap.Seed,
			Workers:      h.cfg.Bootstrap.Workers,
			Cumulative:   req.Cumulative,
		}

		result, err := eventstudy.RunBootstrapTest(r.Context(), study, opts)
		if err != nil {
			h.setError("bootstrap", studyErrorStatus(err), err, w)
			return
		}

		resp.Confidence = result.Confidence
		resp.Bands = NewBandDTOs(result)

		if h.db != nil {
			if err := eventservices.SaveStudyRun(h.db, eventservices.NewStudyRunRecord(runID, study, opts, result)); err != nil {
				log.Errorf("getEventStudy: %v", err)
			}
		}
	}

	if err := eventproducers.SetResponse(&resp, w); err != nil {
		log.Errorf("getEventStudy: failed to set response: %v", err)
	}
}

func (h *Handler) getRuns(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		h.setError("runs", http.StatusNotImplemented, RunStoreDisabledErr, w)
		return
	}

	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			h.setError("request", http.StatusBadRequest, fmt.Errorf("invalid limit %q", s), w)
			return
		}
		limit = n
	}

	runs, err := eventservices.ListStudyRuns(h.db, limit)
	if err != nil {
		h.setError("runs", http.StatusInternalServerError, err, w)
		return
	}

	if err := eventproducers.SetResponse(&runs, w); err != nil {
		log.Errorf("getRuns: failed to set response: %v", err)
	}
}

func (h *Handler) getRun(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		h.setError("runs", http.StatusNotImplemented, RunStoreDisabledErr, w)
		return
	}

	runID, err := uuid.Parse(mux.Vars(r)["runId"])
	if err != nil {
		h.setError("request", http.StatusBadRequest, fmt.Errorf("invalid run id: %w", err), w)
		return
	}

	run, err := eventservices.FetchStudyRun(h.db, runID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, eventservices.StudyRunNotFoundErr) {
			status = http.StatusNotFound
		}

		h.setError("runs", status, err, w)
		return
	}

	if err := eventproducers.SetResponse(run, w); err != nil {
		log.Errorf("getRun: failed to set response: %v", err)
	}
}

func (h *Handler) setError(errType string, status int, err error, w http.ResponseWriter) {
	log.Warnf("studyapi: %s error: %v", errType, err)
	if respErr := eventproducers.SetErrorResponse(errType, status, err, w); respErr != nil {
		log.Errorf("studyapi: failed to set error response: %v", respErr)
	}
}

func studyErrorStatus(err error) int {
	switch {
	case errors.Is(err, eventmodels.UnknownCurrencyErr),
		errors.Is(err, eventmodels.NoCommonColumnsErr),
		errors.Is(err, eventmodels.EventDatesNotInDataErr),
		errors.Is(err, eventmodels.InvalidWindowErr),
		errors.Is(err, eventmodels.InvalidEventDateIndexErr):
		return http.StatusBadRequest
	case errors.Is(err, eventmodels.NotEnoughDataToBootstrapErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// SetupHandler registers the routes on router, tagging each with its
// pattern for the http instrumentation.
func SetupHandler(router *mux.Router, h *Handler) {
	handleFunc := func(pattern string, handlerFunc func(http.ResponseWriter, *http.Request)) {
		handler := otelhttp.WithRouteTag(pattern, http.HandlerFunc(handlerFunc))
		router.Handle(pattern, handler).Methods(http.MethodGet)
	}

	handleFunc("/events", h.getEvents)
	handleFunc("/events/table", h.getEventsTable)
	handleFunc("/availability", h.getAvailability)
	handleFunc("/eventstudy", h.getEventStudy)
	handleFunc("/eventstudy/progress", h.streamProgress)
	handleFunc("/runs", h.getRuns)
	handleFunc("/runs/{runId}", h.getRun)
}
