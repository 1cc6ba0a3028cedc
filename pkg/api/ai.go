package api

import (
	"encoding/base64"
	"net/http"

	"github.com/unowned-ai/nutriscan/pkg/ai"
	"github.com/unowned-ai/nutriscan/pkg/journal"
)

type barcodeReq struct {
	Barcode string `json:"barcode"`
}

func (h *handler) personalizedAnalysis(w http.ResponseWriter, r *http.Request) {
	var req barcodeReq
	if !decodeJSON(w, r, &req) {
		return
	}
	svc, err := h.app.AI(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rec, err := h.app.Resolver.Resolve(r.Context(), req.Barcode)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.app.Profile.Load(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	analysis, err := svc.PersonalizedAnalysis(r.Context(), rec, p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

type compareReq struct {
	Barcode1 string `json:"barcode_1"`
	Barcode2 string `json:"barcode_2"`
}

func (h *handler) compareProducts(w http.ResponseWriter, r *http.Request) {
	var req compareReq
	if !decodeJSON(w, r, &req) {
		return
	}
	svc, err := h.app.AI(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	first, err := h.app.Resolver.Resolve(r.Context(), req.Barcode1)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	second, err := h.app.Resolver.Resolve(r.Context(), req.Barcode2)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	cmp, err := svc.CompareProducts(r.Context(), first, second)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}

type mealPhotoReq struct {
	Image ai.Image `json:"image"`
	Log   bool     `json:"log"` // also store the meal, photo included
	Date  string   `json:"date"`
}

type mealPhotoResp struct {
	Analysis ai.MealAnalysis     `json:"analysis"`
	Logged   *journal.LoggedMeal `json:"logged,omitempty"`
}

func (h *handler) analyzeMealPhoto(w http.ResponseWriter, r *http.Request) {
	var req mealPhotoReq
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Image.Data) == 0 {
		http.Error(w, "image required", http.StatusBadRequest)
		return
	}
	svc, err := h.app.AI(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	analysis, err := svc.AnalyzeMealPhoto(r.Context(), req.Image)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp := mealPhotoResp{Analysis: analysis}
	if req.Log {
		logged, err := journal.LogMeal(r.Context(), h.app.DB, req.Date, journal.Meal{
			AnalysisText: analysis.AnalysisText,
			PhotoBase64:  base64.StdEncoding.EncodeToString(req.Image.Data),
			Nutrients:    analysis.Nutrients,
		})
		if err != nil {
			h.fail(w, r, err)
			return
		}
		resp.Logged = &logged
	}
	writeJSON(w, http.StatusOK, resp)
}

type productImagesReq struct {
	Ingredients ai.Image `json:"ingredients"`
	Nutrition   ai.Image `json:"nutrition"`
}

func (h *handler) analyzeProductImages(w http.ResponseWriter, r *http.Request) {
	var req productImagesReq
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Ingredients.Data) == 0 || len(req.Nutrition.Data) == 0 {
		http.Error(w, "ingredients and nutrition images required", http.StatusBadRequest)
		return
	}
	svc, err := h.app.AI(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	text, err := svc.AnalyzeProductImages(r.Context(), req.Ingredients, req.Nutrition)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}

type additiveReq struct {
	Additive string `json:"additive"`
}

func (h *handler) explainAdditive(w http.ResponseWriter, r *http.Request) {
	var req additiveReq
	if !decodeJSON(w, r, &req) {
		return
	}
	svc, err := h.app.AI(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	text, err := svc.ExplainAdditive(r.Context(), req.Additive)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}

func (h *handler) seasonalFoods(w http.ResponseWriter, r *http.Request) {
	svc, err := h.app.AI(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	resp, err := svc.SeasonalFoods(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
