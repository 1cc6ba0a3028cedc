package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/unowned-ai/nutriscan/pkg/ai"
	"github.com/unowned-ai/nutriscan/pkg/app"
	"github.com/unowned-ai/nutriscan/pkg/guide"
	"github.com/unowned-ai/nutriscan/pkg/journal"
	"github.com/unowned-ai/nutriscan/pkg/products"
	"github.com/unowned-ai/nutriscan/pkg/profile"
	"github.com/unowned-ai/nutriscan/pkg/shopping"
	"github.com/unowned-ai/nutriscan/pkg/store"
	"github.com/unowned-ai/nutriscan/pkg/utils"
)

type handler struct {
	app      *app.App
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a JSON body. Anything not sent as application/json is
// refused with 415, which also keeps browsers from posting it cross-site
// without a preflight.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		http.Error(w, "content type must be application/json", http.StatusUnsupportedMediaType)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return false
	}
	return true
}

var (
	notFoundErrors = []error{
		products.ErrProductNotFound, journal.ErrMealNotFound, shopping.ErrItemNotFound,
		guide.ErrCategoryNotFound, guide.ErrSubcategoryNotFound,
	}
	badRequestErrors = []error{
		products.ErrInvalidBarcode, profile.ErrInvalidProfile, profile.ErrIncompleteBiometrics,
		journal.ErrInvalidAmount, journal.ErrInvalidMeal, utils.ErrInvalidDate,
		guide.ErrInvalidTier, guide.ErrInvalidFood, shopping.ErrEmptyName,
		store.ErrInvalidSetting, ai.ErrMissingParam, ai.ErrUnknownOp,
	}
)

func statusFor(err error) int {
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return http.StatusNotFound
		}
	}
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	switch {
	case errors.Is(err, ai.ErrMissingAPIKey):
		return http.StatusServiceUnavailable
	case errors.Is(err, ai.ErrAIRequestFailed), errors.Is(err, ai.ErrAISchemaValidation):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		msg = "server error"
	}
	writeJSON(w, status, map[string]string{"error": msg})
}
