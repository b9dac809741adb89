package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"medchart/m/domain"
	"medchart/m/internal/catalog"
)

// Version is reported by the info endpoint.
const Version = "1.0.0"

// Records may embed base64 images.
const maxBodyBytes = 10 << 20

const missingFieldsMessage = "Missing required fields: code, generic_name"

var (
	errInvalidJSON  = errors.New("invalid json body")
	errBodyTooLarge = errors.New("request body too large")
	errWrongShape   = errors.New("unexpected json shape")
)

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	catalog *catalog.Service
	log     *zap.Logger
	origins []string
}

// New constructs a Handler.
func New(svc *catalog.Service, logger *zap.Logger, origins []string) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return &Handler{catalog: svc, log: logger.Named("api"), origins: origins}
}

// Router wires up the HTTP API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(h.recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: h.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}))

	// Unknown methods on known paths are reported like unknown paths.
	r.NotFound(h.notFound)
	r.MethodNotAllowed(h.notFound)

	r.Get("/", h.info)

	r.Route("/api/medicines", func(r chi.Router) {
		r.Get("/", h.listMedicines)
		r.Post("/", h.replaceMedicines)
		r.Post("/add", h.addMedicine)
		r.Put("/{code}", h.updateMedicine)
		r.Delete("/{code}", h.deleteMedicine)
	})

	return r
}

type infoResponse struct {
	Status    string   `json:"status"`
	Message   string   `json:"message"`
	Version   string   `json:"version"`
	Endpoints []string `json:"endpoints"`
}

func (h *Handler) info(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, infoResponse{
		Status:  "OK",
		Message: "Medicine Chart API is running",
		Version: Version,
		Endpoints: []string{
			"GET /api/medicines - Get all medicines",
			"POST /api/medicines - Replace all medicines",
			"POST /api/medicines/add - Add new medicine",
			"PUT /api/medicines/:code - Update medicine",
			"DELETE /api/medicines/:code - Delete medicine",
		},
	})
}

type listResponse struct {
	Success bool              `json:"success"`
	Count   int               `json:"count"`
	Data    domain.Collection `json:"data"`
}

func (h *Handler) listMedicines(w http.ResponseWriter, r *http.Request) {
	items := h.catalog.List()
	if items == nil {
		items = domain.Collection{}
	}
	respondJSON(w, http.StatusOK, listResponse{Success: true, Count: len(items), Data: items})
}

type replaceResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Count   int    `json:"count"`
}

func (h *Handler) replaceMedicines(w http.ResponseWriter, r *http.Request) {
	var items domain.Collection
	if err := decodeBody(w, r, '[', &items); err != nil {
		respondBadBody(w, err, "Invalid data format. Expected array of medicines.")
		return
	}

	count, err := h.catalog.ReplaceAll(items)
	if err != nil {
		h.serverError(w, r, "Failed to save medicines", err)
		return
	}

	respondJSON(w, http.StatusOK, replaceResponse{
		Success: true,
		Message: fmt.Sprintf("Successfully saved %d medicines", count),
		Count:   count,
	})
}

type recordResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Data    *domain.Medicine `json:"data"`
	Action  catalog.Action   `json:"action,omitempty"`
}

func (h *Handler) addMedicine(w http.ResponseWriter, r *http.Request) {
	candidate := domain.NewMedicine()
	if err := decodeBody(w, r, '{', candidate); err != nil {
		respondBadBody(w, err, missingFieldsMessage)
		return
	}

	action, err := h.catalog.Upsert(candidate)
	if err != nil {
		if errors.Is(err, catalog.ErrMissingFields) {
			respondError(w, http.StatusBadRequest, missingFieldsMessage)
			return
		}
		h.serverError(w, r, "Failed to add medicine", err)
		return
	}

	respondJSON(w, http.StatusOK, recordResponse{
		Success: true,
		Message: fmt.Sprintf("Medicine %s %s", codeText(candidate), action),
		Data:    candidate,
		Action:  action,
	})
}

func (h *Handler) updateMedicine(w http.ResponseWriter, r *http.Request) {
	code, err := pathCode(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid medicine code in path")
		return
	}

	body := domain.NewMedicine()
	if err := decodeBody(w, r, '{', body); err != nil {
		respondBadBody(w, err, "Invalid data format. Expected medicine object.")
		return
	}

	updated, err := h.catalog.Update(code, body)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			respondError(w, http.StatusNotFound, fmt.Sprintf("Medicine with code %s not found", code))
			return
		}
		h.serverError(w, r, "Failed to update medicine", err)
		return
	}

	respondJSON(w, http.StatusOK, recordResponse{
		Success: true,
		Message: fmt.Sprintf("Medicine %s updated", code),
		Data:    updated,
	})
}

func (h *Handler) deleteMedicine(w http.ResponseWriter, r *http.Request) {
	code, err := pathCode(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid medicine code in path")
		return
	}

	removed, err := h.catalog.Delete(code)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			respondError(w, http.StatusNotFound, fmt.Sprintf("Medicine with code %s not found", code))
			return
		}
		h.serverError(w, r, "Failed to delete medicine", err)
		return
	}

	respondJSON(w, http.StatusOK, recordResponse{
		Success: true,
		Message: fmt.Sprintf("Medicine %s deleted", code),
		Data:    removed,
	})
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusNotFound, failure{
		Error: "Endpoint not found",
		Path:  r.URL.Path,
	})
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, summary string, err error) {
	h.log.Error(summary,
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	respondJSON(w, http.StatusInternalServerError, failure{Error: summary, Message: err.Error()})
}

// recoverer turns panics into the JSON internal error body.
func (h *Handler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			h.log.Error("unhandled panic",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("path", r.URL.Path),
				zap.Any("panic", rec),
				zap.Stack("stack"),
			)
			respondJSON(w, http.StatusInternalServerError, failure{
				Error:   "Internal server error",
				Message: fmt.Sprint(rec),
			})
		}()
		next.ServeHTTP(w, r)
	})
}

// Helpers

// pathCode returns the decoded {code} parameter. chi matches on RawPath
// when the request carries one, so the value may still be escaped.
func pathCode(r *http.Request) (string, error) {
	code := chi.URLParam(r, "code")
	if r.URL.RawPath == "" {
		return code, nil
	}
	return url.PathUnescape(code)
}

// codeText renders a code as it appears in the record: strings bare, other
// values as their JSON text.
func codeText(m *domain.Medicine) string {
	if code, ok := m.Code(); ok {
		return code
	}
	raw, _ := m.Raw(domain.FieldCode)
	return string(raw)
}

type failure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Path    string `json:"path,omitempty"`
}

// decodeBody reads a JSON body whose top-level value must open with want.
// An empty body counts as {}.
func decodeBody(w http.ResponseWriter, r *http.Request, want byte, dest any) error {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errBodyTooLarge
		}
		return errInvalidJSON
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		data = []byte("{}")
	}
	if !json.Valid(data) {
		return errInvalidJSON
	}
	if data[0] != want {
		return errWrongShape
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return errWrongShape
	}
	return nil
}

// respondBadBody reports a decodeBody failure; shapeMessage describes the
// expected shape.
func respondBadBody(w http.ResponseWriter, err error, shapeMessage string) {
	switch {
	case errors.Is(err, errBodyTooLarge):
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Request body exceeds %d bytes", maxBodyBytes))
	case errors.Is(err, errInvalidJSON):
		respondError(w, http.StatusBadRequest, "Invalid JSON body")
	default:
		respondError(w, http.StatusBadRequest, shapeMessage)
	}
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, failure{Error: message})
}
