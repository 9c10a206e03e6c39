package lineitem

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-lineitem/internal/common"
)

// Handler exposes the line item operations over HTTP.
type Handler struct {
	generator *Generator
	logger    zerolog.Logger
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Generator *Generator
	Logger    *zerolog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	return &Handler{generator: cfg.Generator, logger: logger}
}

// Routes mounts the line item endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/generate", h.Generate)
	r.Post("/validate", h.Validate)
	r.Post("/compare", h.Compare)
}

type generateRequest struct {
	VariantID string   `json:"variant_id" validate:"required,uuid"`
	RegionID  string   `json:"region_id" validate:"required,uuid"`
	Quantity  int      `json:"quantity" validate:"required,gte=1,lte=1000000"`
	AddOns    []string `json:"add_ons" validate:"omitempty,dive,uuid"`
}

type compareRequest struct {
	Line  LineItem `json:"line"`
	Match LineItem `json:"match"`
}

// Generate handles POST /api/v1/line-items/generate.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	if h.generator == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "line item generator not configured", nil)
		return
	}
	var payload generateRequest
	if err := decodeJSON(r, &payload); err != nil {
		common.WriteError(w, err)
		return
	}
	if err := validate.Struct(payload); err != nil {
		common.WriteError(w, firstViolation(err, false))
		return
	}
	item, err := h.generator.Generate(r.Context(), payload.VariantID, payload.RegionID, payload.Quantity, payload.AddOns)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": item})
}

// Validate handles POST /api/v1/line-items/validate.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	var draft Draft
	if err := decodeJSON(r, &draft); err != nil {
		common.WriteError(w, err)
		return
	}
	item, err := Validate(draft)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": item})
}

// Compare handles POST /api/v1/line-items/compare.
func (h *Handler) Compare(w http.ResponseWriter, r *http.Request) {
	var payload compareRequest
	if err := decodeJSON(r, &payload); err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": map[string]bool{"equal": IsEqual(payload.Line, payload.Match)},
	})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if !common.IsAppError(err) {
		h.logger.Error().Err(err).Msg("line item request failed")
	}
	common.WriteError(w, err)
}

// decodeJSON reads the request body into v. A value of the wrong JSON type is
// reported as invalid data naming the field; any other failure is a bad request.
func decodeJSON(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return nil
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" && typeErr.Type != nil {
		return common.InvalidDataf("%q must be %s", typeErr.Field, describeKind(typeErr.Type))
	}
	return common.NewAppError("BAD_REQUEST", "invalid payload", http.StatusBadRequest, err)
}

func describeKind(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "a string"
	case reflect.Bool:
		return "a boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "a number"
	case reflect.Slice, reflect.Array:
		return "an array"
	default:
		return "of type object"
	}
}
