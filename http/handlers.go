package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"potability/monitoring"
	"potability/water"
)

// Handlers 表单服务的处理器及其依赖
type Handlers struct {
	classifier water.Classifier
	sessions   *SessionStore
	metrics    *monitoring.Metrics
	logger     *zap.Logger
	page       *page
	upgrader   websocket.Upgrader
	pingPeriod time.Duration
	pongWait   time.Duration
}

// HandlersConfig 处理器依赖
type HandlersConfig struct {
	Classifier     water.Classifier
	Sessions       *SessionStore
	Metrics        *monitoring.Metrics
	Logger         *zap.Logger
	AllowedOrigins []string
}

// NewHandlers 创建处理器
func NewHandlers(cfg HandlersConfig) (*Handlers, error) {
	pg, err := newPage()
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = monitoring.NewMetrics()
	}
	origins := cfg.AllowedOrigins
	return &Handlers{
		classifier: cfg.Classifier,
		sessions:   cfg.Sessions,
		metrics:    metrics,
		logger:     logger,
		page:       pg,
		pingPeriod: pingPeriod,
		pongWait:   pongWait,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || originAllowed(origins, origin) || sameHost(r, origin)
			},
		},
	}, nil
}

// RegisterHandlers 注册所有路由
func (h *Handlers) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.handleIndex)
	mux.Handle("GET /static/", staticHandler())
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("GET /api/fields", handleFields)
	mux.HandleFunc("POST /api/sessions", h.handleCreateSession)
	mux.HandleFunc("GET /api/sessions/{id}", h.handleGetSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", h.handleDeleteSession)
	mux.HandleFunc("PUT /api/sessions/{id}/fields/{field}", h.handleSetField)
	mux.HandleFunc("POST /api/sessions/{id}/classify", h.handleClassify)
	mux.HandleFunc("GET /api/ws", h.handleWebSocket)
	mux.Handle("GET /metrics", h.metrics.Handler())
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type fieldResponse struct {
	water.FieldSpec
	Label     string  `json:"label"`
	Default   float64 `json:"default"`
	SafeRange string  `json:"safe_range_text"`
}

func fieldList() []fieldResponse {
	specs := water.Specs()
	out := make([]fieldResponse, len(specs))
	for i, spec := range specs {
		out[i] = fieldResponse{
			FieldSpec: spec,
			Label:     spec.Label(),
			Default:   spec.Default(),
			SafeRange: spec.SafeRange(),
		}
	}
	return out
}

func handleFields(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"fields": fieldList()})
}

type sessionResponse struct {
	ID string `json:"id"`
	water.Snapshot
}

func (h *Handlers) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id, snap := h.sessions.Create()
	h.metrics.SessionOpened()
	h.logger.Debug("session created", zap.String("session_id", id))
	writeJSON(w, http.StatusCreated, sessionResponse{ID: id, Snapshot: snap})
}

func (h *Handlers) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var snap water.Snapshot
	err := h.sessions.With(id, func(s *water.Session) error {
		snap = s.Snapshot()
		return nil
	})
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{ID: id, Snapshot: snap})
}

func (h *Handlers) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if !h.sessions.Delete(r.PathValue("id")) {
		writeError(w, http.StatusNotFound, ErrSessionNotFound.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type fieldChange struct {
	Value *float64 `json:"value"`
}

func (h *Handlers) handleSetField(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	field, err := water.ParseField(r.PathValue("field"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	var change fieldChange
	if err := json.NewDecoder(r.Body).Decode(&change); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if change.Value == nil {
		writeError(w, http.StatusBadRequest, "value is required")
		return
	}

	var snap water.Snapshot
	err = h.sessions.With(id, func(s *water.Session) error {
		if err := s.SetValue(field, *change.Value); err != nil {
			return err
		}
		snap = s.Snapshot()
		return nil
	})
	var rangeErr *water.RangeError
	switch {
	case errors.Is(err, ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.As(err, &rangeErr):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.metrics.FieldEvent(field.String())
	writeJSON(w, http.StatusOK, sessionResponse{ID: id, Snapshot: snap})
}

type probabilities struct {
	Potable    float64 `json:"potable"`
	NonPotable float64 `json:"non_potable"`
}

type resultResponse struct {
	Class         string           `json:"class"`
	Label         int              `json:"label"`
	Text          string           `json:"text"`
	Probabilities probabilities    `json:"probabilities"`
	Summary       string           `json:"summary"`
	Advisories    []water.Advisory `json:"advisories,omitempty"`
}

type warningResponse struct {
	Warning string   `json:"warning"`
	Missing []string `json:"missing"`
}

func newResultResponse(result water.PredictionResult, advisories []water.Advisory) resultResponse {
	return resultResponse{
		Class: result.Class.Key(),
		Label: int(result.Class),
		Text:  result.Class.String(),
		Probabilities: probabilities{
			Potable:    result.PotableProbability(),
			NonPotable: result.NonPotableProbability(),
		},
		Summary:    result.Summary(),
		Advisories: advisories,
	}
}

func newWarningResponse(missing []water.Field) warningResponse {
	names := make([]string, len(missing))
	for i, f := range missing {
		names[i] = f.String()
	}
	return warningResponse{Warning: "Please interact with all 9 input fields before classifying.", Missing: names}
}

// classify 对会话执行分类并记录指标。调用方持有会话锁
func (h *Handlers) classify(s *water.Session) (water.PredictionResult, error) {
	start := time.Now()
	result, err := water.Classify(s, h.classifier)
	elapsed := time.Since(start)
	switch {
	case errors.Is(err, water.ErrIncompleteInput):
		h.metrics.Classified(monitoring.OutcomeIncomplete, elapsed)
	case err != nil:
		h.metrics.Classified(monitoring.OutcomeError, elapsed)
		h.logger.Error("classifier invocation failed", zap.Error(err), zap.Float64s("features", s.Features()))
	case result.Class == water.Potable:
		h.metrics.Classified(monitoring.OutcomePotable, elapsed)
	default:
		h.metrics.Classified(monitoring.OutcomeNonPotable, elapsed)
	}
	return result, err
}

func (h *Handlers) handleClassify(w http.ResponseWriter, r *http.Request) {
	var (
		result     water.PredictionResult
		advisories []water.Advisory
		missing    []water.Field
	)
	err := h.sessions.With(r.PathValue("id"), func(s *water.Session) error {
		var err error
		result, err = h.classify(s)
		advisories = s.Advisories()
		missing = s.Missing()
		return err
	})
	switch {
	case errors.Is(err, ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, water.ErrIncompleteInput):
		writeJSON(w, http.StatusUnprocessableEntity, newWarningResponse(missing))
	case err != nil:
		writeError(w, http.StatusInternalServerError, "classification failed")
	default:
		writeJSON(w, http.StatusOK, newResultResponse(result, advisories))
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
