package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/unowned-ai/nutriscan/pkg/guide"
	"github.com/unowned-ai/nutriscan/pkg/journal"
	"github.com/unowned-ai/nutriscan/pkg/products"
	"github.com/unowned-ai/nutriscan/pkg/profile"
	"github.com/unowned-ai/nutriscan/pkg/store"
)

func (h *handler) lookupProduct(w http.ResponseWriter, r *http.Request) {
	rec, err := h.app.Resolver.Resolve(r.Context(), chi.URLParam(r, "barcode"))
	if err != nil {
		h.failLookup(w, r, rec, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *handler) productScore(w http.ResponseWriter, r *http.Request) {
	rec, err := h.app.Resolver.Resolve(r.Context(), chi.URLParam(r, "barcode"))
	if err != nil {
		h.failLookup(w, r, rec, err)
		return
	}
	score := products.ExpertScore(rec)
	writeJSON(w, http.StatusOK, map[string]any{"code": rec.Code, "score": score, "band": products.ScoreBand(score)})
}

// failLookup answers a miss with the degenerate record so clients can still
// show the barcode and offer the photo analysis.
func (h *handler) failLookup(w http.ResponseWriter, r *http.Request, rec products.ProductRecord, err error) {
	if !errors.Is(err, products.ErrProductNotFound) {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusNotFound, map[string]any{
		"code":  rec.Code,
		"found": false,
		"error": err.Error(),
		"hint":  products.CreateHint,
	})
}

func (h *handler) listHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.app.History.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *handler) getProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.app.Profile.Load(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *handler) putProfile(w http.ResponseWriter, r *http.Request) {
	var p profile.DietaryProfile
	if !decodeJSON(w, r, &p) {
		return
	}
	saved, err := h.app.Profile.Save(r.Context(), p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// deriveGoals recomputes the stored profile's goals from its biometrics.
func (h *handler) deriveGoals(w http.ResponseWriter, r *http.Request) {
	p, err := h.app.Profile.Load(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if p.Goals, err = p.DeriveGoals(); err != nil {
		h.fail(w, r, err)
		return
	}
	saved, err := h.app.Profile.Save(r.Context(), p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (h *handler) getSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.app.Settings.Load(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *handler) putSettings(w http.ResponseWriter, r *http.Request) {
	var s store.Settings
	if !decodeJSON(w, r, &s) {
		return
	}
	if err := h.app.Settings.Save(r.Context(), s); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// dateParam maps the "today" alias to the journal's empty-date default.
func dateParam(r *http.Request) string {
	d := chi.URLParam(r, "date")
	if d == "today" {
		return ""
	}
	return d
}

func (h *handler) listDays(w http.ResponseWriter, r *http.Request) {
	dates, err := journal.ListDates(r.Context(), h.app.DB)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dates)
}

func (h *handler) getDay(w http.ResponseWriter, r *http.Request) {
	day, err := journal.GetDay(r.Context(), h.app.DB, dateParam(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.app.Profile.Load(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"day": day, "summary": journal.Summarize(day, p.Goals)})
}

func (h *handler) logMeal(w http.ResponseWriter, r *http.Request) {
	var meal journal.Meal
	if !decodeJSON(w, r, &meal) {
		return
	}
	logged, err := journal.LogMeal(r.Context(), h.app.DB, dateParam(r), meal)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, logged)
}

type waterReq struct {
	Ml *float64 `json:"ml"`
}

func (h *handler) addWater(w http.ResponseWriter, r *http.Request) {
	var req waterReq
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	ml := float64(journal.GlassMl)
	if req.Ml != nil {
		ml = *req.Ml
	}
	total, err := journal.AddWater(r.Context(), h.app.DB, dateParam(r), ml)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"total_ml": total})
}

func queryList(r *http.Request, key string) []string {
	var out []string
	for _, v := range r.URL.Query()[key] {
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func (h *handler) filterGuide(w http.ResponseWriter, r *http.Request) {
	g, err := h.app.Guide.Load(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	filters := guide.Filters{
		Regions:              queryList(r, "region"),
		OrganBenefits:        queryList(r, "organ"),
		DietaryCompatibility: queryList(r, "dietary"),
		NutritionalProfile:   queryList(r, "nutritional"),
	}
	writeJSON(w, http.StatusOK, g.Filter(r.URL.Query().Get("search"), filters))
}

func (h *handler) avoidList(w http.ResponseWriter, r *http.Request) {
	g, err := h.app.Guide.Load(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g.AvoidList())
}

func (h *handler) filterOptions(w http.ResponseWriter, r *http.Request) {
	g, err := h.app.Guide.Load(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g.FilterOptions())
}

type addFoodReq struct {
	Category    string     `json:"category"`
	Subcategory string     `json:"subcategory"`
	Food        guide.Food `json:"food"`
}

func (h *handler) addGuideFood(w http.ResponseWriter, r *http.Request) {
	var req addFoodReq
	if !decodeJSON(w, r, &req) {
		return
	}
	food, err := h.app.Guide.Add(r.Context(), req.Category, req.Subcategory, req.Food)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, food)
}

func (h *handler) getGuideFood(w http.ResponseWriter, r *http.Request) {
	g, err := h.app.Guide.Load(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	food, ok := g.FindFood(chi.URLParam(r, "name"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "food not found"})
		return
	}
	writeJSON(w, http.StatusOK, food)
}

func (h *handler) listShopping(w http.ResponseWriter, r *http.Request) {
	items, err := h.app.Shopping.Items(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

type addItemReq struct {
	Name string `json:"name"`
}

func (h *handler) addShoppingItem(w http.ResponseWriter, r *http.Request) {
	var req addItemReq
	if !decodeJSON(w, r, &req) {
		return
	}
	item, err := h.app.Shopping.Add(r.Context(), req.Name)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *handler) toggleShoppingItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.app.Shopping.Toggle(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *handler) removeShoppingItem(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Shopping.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
