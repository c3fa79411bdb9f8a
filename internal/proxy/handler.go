package proxy

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// MaxBodyBytes bounds the size of a query request.
const MaxBodyBytes = 8 << 20

// Request is the body of a proxied query.
type Request struct {
	Query  string `json:"query"`
	Params []any  `json:"params"`
}

// ErrorResponse is returned when a query cannot be executed.
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Timestamp string `json:"timestamp"`
}

// HealthResponse answers a GET request.
type HealthResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Data      Row    `json:"data"`
	Timestamp string `json:"timestamp"`
}

// Handler executes proxied queries.
type Handler struct {
	Exec        Executor
	HealthQuery string
	// Token, when set, must be presented as a bearer token.
	Token string
}

// ServeHTTP handles POST (query) and GET (health check).
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Token != "" && !h.authorized(r) {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	switch r.Method {
	case http.MethodPost:
		h.query(w, r)
	case http.MethodGet:
		h.health(w, r)
	default:
		w.Header().Set("Allow", "GET, POST, OPTIONS")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
	}
}

func (h *Handler) authorized(r *http.Request) bool {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return false
	}
	given := strings.TrimPrefix(header, "Bearer ")
	return subtle.ConstantTimeCompare([]byte(given), []byte(h.Token)) == 1
}

func (h *Handler) query(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()

	var req Request
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query required", "")
		return
	}

	params := normalizeParams(req.Params)
	slog.Debug("executing query", "query", req.Query, "params", len(params))

	rows, err := h.Exec.Query(r.Context(), req.Query, params)
	if err != nil {
		code := sqlState(err)
		slog.Error("query failed", "error", err, "code", code)
		writeError(w, http.StatusInternalServerError, err.Error(), code)
		return
	}

	writeJSON(w, http.StatusOK, rows)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Exec.Query(r.Context(), h.HealthQuery, nil)
	if err != nil {
		slog.Error("health check failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error(), sqlState(err))
		return
	}

	var data Row
	if len(rows) > 0 {
		data = rows[0]
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		Success:   true,
		Message:   "Database connection successful!",
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// normalizeParams turns JSON numbers into int64 when integral and float64
// otherwise, so integer columns get integer arguments.
func normalizeParams(params []any) []any {
	out := make([]any, len(params))
	for i, p := range params {
		n, ok := p.(json.Number)
		if !ok {
			out[i] = p
			continue
		}
		if v, err := n.Int64(); err == nil {
			out[i] = v
		} else if f, err := n.Float64(); err == nil {
			out[i] = f
		} else {
			out[i] = n.String()
		}
	}
	return out
}

// sqlState returns the Postgres error code of err, if any.
func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("error encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Success:   false,
		Error:     message,
		Code:      code,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
