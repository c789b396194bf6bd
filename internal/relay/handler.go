package relay

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/telemetry"
	"github.com/go-chi/chi/v5"

	"github.com/baristaclub/barista/internal/square"
)

const MaxBodyBytes = 1 << 20

const (
	baseURLSandbox    = "https://connect.squareupsandbox.com"
	baseURLProduction = "https://connect.squareup.com"
	defaultAPIVersion = "2023-10-18"
)

// Handler is the credential-injecting proxy between display clients and
// the Square API. Callers always POST here, naming the upstream path and
// the method Square should actually see; the access token never leaves
// this process.
type Handler struct {
	accessToken string
	apiVersion  string
	logger      aqm.Logger
	httpClient  *http.Client
	baseURLs    map[string]string
	tlm         *telemetry.HTTP
}

func NewHandler(config *aqm.Config, logger aqm.Logger) *Handler {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}

	accessToken, _ := config.GetString("square.access.token")
	apiVersion, _ := config.GetString("square.api.version")
	if apiVersion == "" {
		apiVersion = defaultAPIVersion
	}

	return &Handler{
		accessToken: accessToken,
		apiVersion:  apiVersion,
		logger:      logger,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURLs: map[string]string{
			"sandbox":    baseURLSandbox,
			"production": baseURLProduction,
		},
		tlm: telemetry.NewHTTP(),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/square-proxy", h.Relay)
}

type relayRequest struct {
	Environment   string          `json:"environment"`
	SquareAPIPath string          `json:"square_api_path"`
	ActualMethod  string          `json:"actual_method_for_square"`
	Body          json.RawMessage `json:"body"`
}

func (h *Handler) Relay(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.Relay")
	defer finish()
	log := h.logger.With("request_id", aqm.RequestIDFrom(r.Context()))

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	var req relayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		aqm.RespondError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	if req.Environment == "" || req.SquareAPIPath == "" || req.ActualMethod == "" {
		aqm.RespondError(w, http.StatusBadRequest,
			"Missing one or more required fields: environment, square_api_path, actual_method_for_square")
		return
	}

	method := strings.ToUpper(req.ActualMethod)
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut:
	default:
		aqm.RespondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid actual_method_for_square: %s", req.ActualMethod))
		return
	}

	baseURL, ok := h.baseURLs[req.Environment]
	if !ok {
		aqm.RespondError(w, http.StatusBadRequest, "Invalid environment. Must be 'sandbox' or 'production'")
		return
	}

	if h.accessToken == "" {
		log.Error("square access token not configured")
		aqm.RespondError(w, http.StatusInternalServerError, "Server configuration error: missing access token")
		return
	}

	var upstreamBody io.Reader
	if method != http.MethodGet && len(req.Body) > 0 {
		upstreamBody = bytes.NewReader(req.Body)
	}

	upstreamURL := baseURL + req.SquareAPIPath
	upstreamReq, err := http.NewRequestWithContext(r.Context(), method, upstreamURL, upstreamBody)
	if err != nil {
		log.Errorf("cannot build upstream request: %v", err)
		aqm.RespondError(w, http.StatusInternalServerError, "Proxy failed to build upstream request")
		return
	}

	upstreamReq.Header.Set("Authorization", "Bearer "+h.accessToken)
	upstreamReq.Header.Set("Square-Version", h.apiVersion)
	upstreamReq.Header.Set("Content-Type", "application/json")
	upstreamReq.Header.Set("Accept", "application/json")

	log.Debug("relaying request", "method", method, "path", req.SquareAPIPath)

	resp, err := h.httpClient.Do(upstreamReq)
	if err != nil {
		log.Errorf("upstream request failed: %v", err)
		aqm.RespondError(w, http.StatusBadGateway, fmt.Sprintf("Proxy failed: %v", err))
		return
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Errorf("cannot read upstream response: %v", err)
		aqm.RespondError(w, http.StatusBadGateway, "Proxy failed to read upstream response")
		return
	}

	// Upstream status is relayed verbatim. The body passes through
	// untouched when it is valid JSON; anything else is rewrapped in
	// the standard errors envelope so callers have one error shape.
	if !json.Valid(data) {
		if resp.StatusCode >= 400 {
			data = synthesizeErrorBody(resp, data)
		} else {
			data, _ = json.Marshal(map[string]string{
				"message": "Operation successful, no JSON content.",
			})
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	if _, err := w.Write(data); err != nil {
		log.Errorf("cannot write relay response: %v", err)
	}
}

func synthesizeErrorBody(resp *http.Response, raw []byte) []byte {
	code := strings.ToUpper(strings.ReplaceAll(http.StatusText(resp.StatusCode), " ", "_"))
	if code == "" {
		code = "UNKNOWN_ERROR"
	}
	detail := strings.TrimSpace(string(raw))
	if detail == "" {
		detail = fmt.Sprintf("Square API error: %d", resp.StatusCode)
	}

	body, _ := json.Marshal(square.ErrorEnvelope{
		Errors: []square.APIError{{
			Category: "API_ERROR",
			Code:     code,
			Detail:   detail,
		}},
	})
	return body
}
