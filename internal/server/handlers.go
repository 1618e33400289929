package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/taixiu-oracle/internal/datasource"
	"github.com/yourusername/taixiu-oracle/internal/models"
	"github.com/yourusername/taixiu-oracle/internal/predictor"
	"github.com/yourusername/taixiu-oracle/internal/service"
)

// Client-facing error messages.
const (
	MsgNoData     = "Không có dữ liệu trả về từ API"
	MsgNotReady   = "Chưa có dữ liệu mới"
	MsgFetchError = "Lỗi khi gọi API"
)

// scorePlaces is the rounding applied to scores in the detail payload.
const scorePlaces = 4

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// DetailResponse is the cached prediction with its ensemble breakdown.
type DetailResponse struct {
	RunID       string                     `json:"runId"`
	GeneratedAt time.Time                  `json:"generatedAt"`
	Result      models.PredictionResult    `json:"result"`
	HistoryLen  int                        `json:"historyLen"`
	ScoreTai    decimal.Decimal            `json:"scoreTai"`
	ScoreXiu    decimal.Decimal            `json:"scoreXiu"`
	Votes       map[string]string          `json:"votes"`
	Weights     map[string]decimal.Decimal `json:"weights"`
	Multipliers map[string]decimal.Decimal `json:"multipliers"`
	Streak      predictor.StreakInfo       `json:"streak"`
	BreakProb   decimal.Decimal            `json:"breakProb"`
	Secondary   string                     `json:"secondaryReason"`
	Bridge      string                     `json:"bridgeReason"`
	Adjustments []string                   `json:"adjustments"`
	Random      bool                       `json:"random,omitempty"`
}

type handler struct {
	predictor Predictor
	history   HistoryProvider
	logger    *logrus.Entry
}

// Alive answers the root liveness probe.
func (h *handler) Alive(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("server alive"))
}

// Prediction serves the prediction for the next round.
func (h *handler) Prediction(w http.ResponseWriter, r *http.Request) {
	result, err := h.predictor.Predict(r.Context())
	if err != nil {
		status, body := errorResponse(err)
		if status == http.StatusInternalServerError {
			h.logger.WithError(err).Error("Prediction request failed")
		}
		writeJSON(w, status, body)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Detail serves the cached prediction with its ensemble breakdown. It never
// contacts upstream.
func (h *handler) Detail(w http.ResponseWriter, r *http.Request) {
	snap, err := h.predictor.Latest()
	if err != nil {
		status, body := errorResponse(err)
		writeJSON(w, status, body)
		return
	}
	writeJSON(w, http.StatusOK, newDetailResponse(snap))
}

// History republishes the collector buffer, newest first.
func (h *handler) History(w http.ResponseWriter, r *http.Request) {
	records := h.history.History()
	if records == nil {
		records = []json.RawMessage{}
	}
	writeJSON(w, http.StatusOK, records)
}

// errorResponse maps service errors to a status and body.
func errorResponse(err error) (int, ErrorResponse) {
	switch {
	case errors.Is(err, service.ErrNoData), errors.Is(err, datasource.ErrInvalidData):
		return http.StatusNotFound, ErrorResponse{Error: MsgNoData}
	case errors.Is(err, service.ErrNotReady):
		return http.StatusServiceUnavailable, ErrorResponse{Error: MsgNotReady}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: MsgFetchError, Message: err.Error()}
	}
}

func newDetailResponse(snap service.Snapshot) DetailResponse {
	out := snap.Outcome
	resp := DetailResponse{
		RunID:       snap.RunID,
		GeneratedAt: snap.GeneratedAt,
		Result:      snap.Result,
		HistoryLen:  snap.HistoryLen,
		ScoreTai:    round(out.ScoreTai),
		ScoreXiu:    round(out.ScoreXiu),
		Votes:       make(map[string]string, len(out.Votes)),
		Weights:     roundAll(out.Weights),
		Multipliers: roundAll(out.Multipliers),
		Streak:      out.Streak,
		BreakProb:   round(out.Bridge.BreakProb),
		Secondary:   out.Secondary.Reason,
		Bridge:      out.Bridge.Reason,
		Adjustments: out.Adjustments,
		Random:      out.Random,
	}
	for model, vote := range out.Votes {
		resp.Votes[model] = vote.String()
	}
	if resp.Adjustments == nil {
		resp.Adjustments = []string{}
	}
	return resp
}

func round(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(scorePlaces)
}

func roundAll(values map[string]float64) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(values))
	for k, v := range values {
		out[k] = round(v)
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
