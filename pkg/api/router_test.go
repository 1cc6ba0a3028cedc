package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/unowned-ai/nutriscan/pkg/ai"
	"github.com/unowned-ai/nutriscan/pkg/app"
	"github.com/unowned-ai/nutriscan/pkg/config"
	pkgdb "github.com/unowned-ai/nutriscan/pkg/db"
	"github.com/unowned-ai/nutriscan/pkg/journal"
	"github.com/unowned-ai/nutriscan/pkg/products"
	"github.com/unowned-ai/nutriscan/pkg/shopping"
)

type fakeGen struct {
	text   string
	chunks []string
}

func (f *fakeGen) Generate(ctx context.Context, req ai.Request) (ai.Response, error) {
	return ai.Response{Text: f.text}, nil
}

func (f *fakeGen) Stream(ctx context.Context, req ai.Request) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, c := range f.chunks {
			if !yield(c, nil) {
				return
			}
		}
	}
}

func setupServer(t *testing.T, cfg config.Config, opts ...app.Option) *httptest.Server {
	t.Helper()
	db, err := pkgdb.OpenAndUpgrade(":memory:", pkgdb.Options{})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	off := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/5201234567890.json") {
			fmt.Fprint(w, `{"status":1,"product":{"product_name":"Greek Yogurt","nutriscore_grade":"a"}}`)
			return
		}
		fmt.Fprint(w, `{"status":0}`)
	}))
	t.Cleanup(off.Close)

	cfg.Retry = products.DefaultRetryPolicy()
	opts = append([]app.Option{app.WithResolverOptions(
		products.WithHTTPClient(off.Client()),
		products.WithDomains(products.Domains{FoodPrimary: off.URL, FoodMirror: off.URL, BeautyPrimary: off.URL, BeautyMirror: off.URL}),
	)}, opts...)
	a, err := app.New(db, cfg, nil, opts...)
	if err != nil {
		t.Fatalf("Failed to build app: %v", err)
	}

	srv := httptest.NewServer(NewRouter(a))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, body string) (int, string) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, rd)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, url, err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(out)
}

func TestHealth(t *testing.T) {
	srv := setupServer(t, config.Config{})
	status, body := do(t, "GET", srv.URL+"/health", "")
	if status != http.StatusOK || body != "ok" {
		t.Errorf("Expected 200 ok, got %d %q", status, body)
	}
}

func TestProducts(t *testing.T) {
	srv := setupServer(t, config.Config{})

	status, body := do(t, "GET", srv.URL+"/products/5201234567890", "")
	if status != http.StatusOK || !strings.Contains(body, "Greek Yogurt") {
		t.Fatalf("Expected product, got %d %s", status, body)
	}

	status, body = do(t, "GET", srv.URL+"/products/5201234567890/score", "")
	if status != http.StatusOK || !strings.Contains(body, `"score":10`) {
		t.Errorf("Expected score 10, got %d %s", status, body)
	}

	status, body = do(t, "GET", srv.URL+"/products/0000000000000", "")
	if status != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown product, got %d", status)
	}
	for _, want := range []string{`"code":"0000000000000"`, `"found":false`, `"error":"product 0000000000000 not found"`, "ai product-images"} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected not found body to contain %s, got %s", want, body)
		}
	}
	status, body = do(t, "GET", srv.URL+"/products/0000000000000/score", "")
	if status != http.StatusNotFound || !strings.Contains(body, `"found":false`) {
		t.Errorf("Expected 404 with degenerate record for score, got %d %s", status, body)
	}

	status, body = do(t, "GET", srv.URL+"/history", "")
	if status != http.StatusOK || strings.Count(body, `"code"`) != 1 {
		t.Errorf("Expected one history entry, got %d %s", status, body)
	}
}

func TestProfileAndSettings(t *testing.T) {
	srv := setupServer(t, config.Config{})

	status, _ := do(t, "PUT", srv.URL+"/profile", `{"allergies":["Nuts"],"goals":{"calories":-1}}`)
	if status != http.StatusBadRequest {
		t.Errorf("Expected 400 for negative goal, got %d", status)
	}

	status, _ = do(t, "POST", srv.URL+"/profile/derive", "")
	if status != http.StatusBadRequest {
		t.Errorf("Expected 400 without biometrics, got %d", status)
	}

	status, body := do(t, "PUT", srv.URL+"/profile", `{"age":25,"sex":"female","weight_kg":60,"height_cm":165,"activity_level":"sedentary"}`)
	if status != http.StatusOK {
		t.Fatalf("Expected 200, got %d %s", status, body)
	}
	status, body = do(t, "POST", srv.URL+"/profile/derive", "")
	if status != http.StatusOK || !strings.Contains(body, `"calories":1614`) {
		t.Errorf("Expected derived 1614 kcal, got %d %s", status, body)
	}

	status, _ = do(t, "PUT", srv.URL+"/settings", `{"theme":"neon","language":"en"}`)
	if status != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad theme, got %d", status)
	}
	status, _ = do(t, "PUT", srv.URL+"/profile", `not json`)
	if status != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad json, got %d", status)
	}
}

func TestJournal(t *testing.T) {
	srv := setupServer(t, config.Config{})

	status, body := do(t, "POST", srv.URL+"/journal/2026-02-10/meals",
		`{"analysis_text":"Lentil soup","nutrients":{"calories":320,"protein":18,"carbs":45,"fat":6}}`)
	if status != http.StatusCreated {
		t.Fatalf("Expected 201, got %d %s", status, body)
	}
	var meal journal.LoggedMeal
	if err := json.Unmarshal([]byte(body), &meal); err != nil || meal.Date != "2026-02-10" {
		t.Errorf("Expected meal dated 2026-02-10, got %+v (%v)", meal, err)
	}

	status, body = do(t, "POST", srv.URL+"/journal/2026-02-10/water", "")
	if status != http.StatusOK || !strings.Contains(body, `"total_ml":250`) {
		t.Errorf("Expected 250 ml, got %d %s", status, body)
	}
	status, body = do(t, "POST", srv.URL+"/journal/2026-02-10/water", `{"ml":500}`)
	if status != http.StatusOK || !strings.Contains(body, `"total_ml":750`) {
		t.Errorf("Expected 750 ml, got %d %s", status, body)
	}
	status, _ = do(t, "POST", srv.URL+"/journal/2026-02-10/water", `{"ml":-5}`)
	if status != http.StatusBadRequest {
		t.Errorf("Expected 400 for negative water, got %d", status)
	}

	status, body = do(t, "GET", srv.URL+"/journal/2026-02-10", "")
	if status != http.StatusOK || !strings.Contains(body, "Lentil soup") || !strings.Contains(body, `"glasses_filled":3`) {
		t.Errorf("Expected day with meal and 3 glasses, got %d %s", status, body)
	}

	status, _ = do(t, "GET", srv.URL+"/journal/10-02-2026", "")
	if status != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad date, got %d", status)
	}

	status, body = do(t, "GET", srv.URL+"/journal/", "")
	if status != http.StatusOK || !strings.Contains(body, "2026-02-10") {
		t.Errorf("Expected date list, got %d %s", status, body)
	}
}

func TestGuide(t *testing.T) {
	srv := setupServer(t, config.Config{})

	status, body := do(t, "POST", srv.URL+"/guide/foods",
		`{"category":"Vegetables","subcategory":"Cruciferous","food":{"name":"Romanesco","tier":"A","info":"Fibre"}}`)
	if status != http.StatusCreated {
		t.Fatalf("Expected 201, got %d %s", status, body)
	}
	status, body = do(t, "GET", srv.URL+"/guide/?search=romanesco", "")
	if status != http.StatusOK || !strings.Contains(body, "Romanesco") {
		t.Errorf("Expected Romanesco in results, got %d %s", status, body)
	}

	status, body = do(t, "GET", srv.URL+"/guide/foods/ROMANESCO", "")
	if status != http.StatusOK || !strings.Contains(body, `"name":"Romanesco"`) {
		t.Errorf("Expected Romanesco details, got %d %s", status, body)
	}
	status, _ = do(t, "GET", srv.URL+"/guide/foods/Dragonfruit%20Jam", "")
	if status != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown food, got %d", status)
	}

	status, _ = do(t, "POST", srv.URL+"/guide/foods", `{"category":"Sweets","subcategory":"Cakes","food":{"name":"Cake","tier":"E"}}`)
	if status != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown category, got %d", status)
	}

	status, body = do(t, "GET", srv.URL+"/guide/avoid", "")
	if status != http.StatusOK || !strings.Contains(body, `"tier":"E"`) {
		t.Errorf("Expected E foods in avoid list, got %d", status)
	}
	status, _ = do(t, "GET", srv.URL+"/guide/options", "")
	if status != http.StatusOK {
		t.Errorf("Expected 200 for options, got %d", status)
	}
}

func TestShopping(t *testing.T) {
	srv := setupServer(t, config.Config{})

	status, body := do(t, "POST", srv.URL+"/shopping/", `{"name":"Spinach"}`)
	if status != http.StatusCreated {
		t.Fatalf("Expected 201, got %d %s", status, body)
	}
	var item shopping.Item
	if err := json.Unmarshal([]byte(body), &item); err != nil {
		t.Fatalf("Failed to decode item: %v", err)
	}

	status, body = do(t, "POST", srv.URL+"/shopping/"+item.ID+"/toggle", "")
	if status != http.StatusOK || !strings.Contains(body, `"checked":true`) {
		t.Errorf("Expected checked item, got %d %s", status, body)
	}
	status, _ = do(t, "DELETE", srv.URL+"/shopping/"+item.ID, "")
	if status != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", status)
	}
	status, _ = do(t, "DELETE", srv.URL+"/shopping/"+item.ID, "")
	if status != http.StatusNotFound {
		t.Errorf("Expected 404 on second delete, got %d", status)
	}
	status, _ = do(t, "POST", srv.URL+"/shopping/", `{"name":"  "}`)
	if status != http.StatusBadRequest {
		t.Errorf("Expected 400 for empty name, got %d", status)
	}
}

func TestAIWithoutKey(t *testing.T) {
	srv := setupServer(t, config.Config{})
	status, _ := do(t, "POST", srv.URL+"/ai/additive", `{"additive":"E330"}`)
	if status != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 without API key, got %d", status)
	}
}

func TestAIAnalysis(t *testing.T) {
	gen := &fakeGen{text: `{"verdict":"RECOMMENDED","summary":"Good protein.","pros":["protein"],"cons":[]}`}
	srv := setupServer(t, config.Config{}, app.WithGenerator(gen))

	status, body := do(t, "POST", srv.URL+"/ai/analysis", `{"barcode":"5201234567890"}`)
	if status != http.StatusOK || !strings.Contains(body, "RECOMMENDED") {
		t.Errorf("Expected analysis, got %d %s", status, body)
	}

	gen.text = `{"verdict":"GREAT","summary":"x","pros":[],"cons":[]}`
	status, _ = do(t, "POST", srv.URL+"/ai/analysis", `{"barcode":"5201234567890"}`)
	if status != http.StatusBadGateway {
		t.Errorf("Expected 502 for invalid verdict, got %d", status)
	}
}

func TestAIMealPhotoLogs(t *testing.T) {
	gen := &fakeGen{text: `{"analysis_text":"Pasta","nutrients":{"calories":600,"protein":20,"carbs":90,"fat":15}}`}
	srv := setupServer(t, config.Config{}, app.WithGenerator(gen))

	status, body := do(t, "POST", srv.URL+"/ai/meal-photo",
		`{"image":{"data":"iVBORw0KGgo=","mime_type":"image/png"},"log":true,"date":"2026-02-11"}`)
	if status != http.StatusOK || !strings.Contains(body, `"logged"`) {
		t.Fatalf("Expected logged meal, got %d %s", status, body)
	}
	_, body = do(t, "GET", srv.URL+"/journal/2026-02-11", "")
	if !strings.Contains(body, "iVBORw0KGgo=") {
		t.Errorf("Expected stored photo in day, got %s", body)
	}
}

func dialStream(t *testing.T, srv *httptest.Server, op string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/ai/"+op, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestStreamAI(t *testing.T) {
	srv := setupServer(t, config.Config{}, app.WithGenerator(&fakeGen{chunks: []string{"Try ", "kefir."}}))
	conn := dialStream(t, srv, "alternatives")

	if err := conn.WriteJSON(ai.StreamParams{Product: "Fruit yogurt"}); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	var text strings.Builder
	for {
		var m streamMsg
		if err := conn.ReadJSON(&m); err != nil {
			t.Fatalf("ReadJSON failed: %v", err)
		}
		if m.Type == "done" {
			break
		}
		if m.Type != "chunk" {
			t.Fatalf("Expected chunk, got %+v", m)
		}
		text.WriteString(m.Text)
	}
	if text.String() != "Try kefir." {
		t.Errorf("Expected streamed text, got %q", text.String())
	}
}

func TestStreamAIErrors(t *testing.T) {
	srv := setupServer(t, config.Config{}, app.WithGenerator(&fakeGen{}))

	conn := dialStream(t, srv, "horoscope")
	_ = conn.WriteJSON(ai.StreamParams{})
	var m streamMsg
	if err := conn.ReadJSON(&m); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if m.Type != "error" || !strings.Contains(m.Error, "unknown AI operation") {
		t.Errorf("Expected unknown op error, got %+v", m)
	}

	conn = dialStream(t, srv, "recipes")
	_ = conn.WriteJSON(ai.StreamParams{})
	m = streamMsg{}
	if err := conn.ReadJSON(&m); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if m.Type != "error" || !strings.Contains(m.Error, "missing parameter") {
		t.Errorf("Expected missing parameter error, got %+v", m)
	}
}

func TestCORS(t *testing.T) {
	srv := setupServer(t, config.Config{CORSOrigins: []string{"http://localhost:5173"}})

	req, _ := http.NewRequest("GET", srv.URL+"/health", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Expected allowed origin header, got %q", got)
	}
}

func TestStreamAIRejectsForeignOrigin(t *testing.T) {
	srv := setupServer(t, config.Config{CORSOrigins: []string{"http://localhost:5173"}},
		app.WithGenerator(&fakeGen{chunks: []string{"ok"}}))
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/ai/alternatives"

	header := http.Header{"Origin": []string{"http://evil.example"}}
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err == nil {
		conn.Close()
		t.Fatalf("Expected handshake from a foreign origin to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("Expected 403 for foreign origin, got %v", resp)
	}

	for _, origin := range []string{"http://localhost:5173", srv.URL} {
		conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{origin}})
		if err != nil {
			t.Errorf("Expected origin %s to be accepted, got %v", origin, err)
			continue
		}
		conn.Close()
	}
}

func TestRejectsCrossSiteWrites(t *testing.T) {
	srv := setupServer(t, config.Config{})

	req, _ := http.NewRequest("POST", srv.URL+"/journal/2026-02-12/water", nil)
	req.Header.Set("Origin", "http://evil.example")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("Expected 403 for cross-site write, got %d", resp.StatusCode)
	}

	req, _ = http.NewRequest("POST", srv.URL+"/journal/2026-02-12/water", nil)
	req.Header.Set("Sec-Fetch-Site", "cross-site")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("Expected 403 for cross-site request without Origin, got %d", resp.StatusCode)
	}

	req, _ = http.NewRequest("POST", srv.URL+"/shopping/", strings.NewReader(`{"name":"Kale"}`))
	req.Header.Set("Content-Type", "text/plain")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnsupportedMediaType {
		t.Errorf("Expected 415 for text/plain body, got %d", resp.StatusCode)
	}

	_, body := do(t, "GET", srv.URL+"/journal/2026-02-12", "")
	if !strings.Contains(body, `"water_ml":0`) {
		t.Errorf("Expected no water logged, got %s", body)
	}
	_, body = do(t, "GET", srv.URL+"/shopping/", "")
	if strings.Contains(body, "Kale") {
		t.Errorf("Expected shopping list untouched, got %s", body)
	}

	req, _ = http.NewRequest("POST", srv.URL+"/journal/2026-02-12/water", nil)
	req.Header.Set("Origin", srv.URL)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected same-origin write to pass, got %d", resp.StatusCode)
	}
}
