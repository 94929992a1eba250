package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	service "github.com/okian/motionrisk/internal/app"
	"github.com/okian/motionrisk/internal/domain/encoding"
	"github.com/okian/motionrisk/internal/domain/inference"
	"github.com/okian/motionrisk/internal/domain/model"
	"github.com/okian/motionrisk/pkg/logger"
)

// AssessDependencies runs one assessment from raw form values.
type AssessDependencies interface {
	Assess(ctx context.Context, fields map[string]string) (model.Assessment, error)
}

// AssessHandler handles assessment requests.
type AssessHandler struct {
	deps         AssessDependencies
	maxBodyBytes int64
	logger       logger.Logger
}

// NewAssessHandler creates a new assessment handler. A nil logger falls
// back to the global one on first use.
func NewAssessHandler(deps AssessDependencies, maxBodyBytes int64, l logger.Logger) *AssessHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
	}
	return &AssessHandler{deps: deps, maxBodyBytes: maxBodyBytes, logger: l}
}

// assessRequest mirrors the OpenAPI schema for POST /assess. Values may be
// JSON numbers or strings; both are parsed by the same strict rules.
type assessRequest struct {
	Fields map[string]any `json:"fields"`
}

func (req assessRequest) form() map[string]string {
	form := make(map[string]string, len(req.Fields))
	for k, v := range req.Fields {
		switch val := v.(type) {
		case nil:
			form[k] = ""
		case string:
			form[k] = val
		case json.Number:
			form[k] = val.String()
		default:
			// Booleans, arrays and objects are left for the parser to reject.
			form[k] = fmt.Sprint(val)
		}
	}
	return form
}

// HandlePostAssess handles POST /assess requests.
func (h *AssessHandler) HandlePostAssess(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_assess"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	req, err := h.decode(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	assessment, err := h.deps.Assess(r.Context(), req.form())
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, assessment)
}

func (h *AssessHandler) decode(w http.ResponseWriter, r *http.Request) (assessRequest, error) {
	var req assessRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	dec.UseNumber()
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return req, fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)
		}
		return req, err
	}
	if dec.More() {
		return req, errors.New("unexpected data after request object")
	}
	if req.Fields == nil {
		return req, errors.New("missing fields object")
	}
	return req, nil
}

// fail maps service errors to responses. Inference failures never leak
// their cause to the client; the service has already logged it.
func (h *AssessHandler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	var fieldErr *encoding.InvalidFieldError
	switch {
	case errors.As(err, &fieldErr):
		writeFieldError(w, fieldErr.Field, fieldErr)
	case errors.Is(err, inference.ErrInference):
		writeError(w, http.StatusInternalServerError, "inference_error",
			errors.New("the risk model could not evaluate this input"))
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", NewKind(op, ErrUnavailable))
	default:
		h.log().Error(r.Context(), "assessment failed unexpectedly", logger.Error(Wrap(op, err)))
		writeError(w, http.StatusInternalServerError, "internal_error", NewKind(op, ErrInternal))
	}
}

func (h *AssessHandler) log() logger.Logger {
	if h.logger != nil {
		return h.logger
	}
	return logger.Named("api")
}
