package products

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	pkgdb "github.com/unowned-ai/nutriscan/pkg/db"
)

// fakeDomains serves /<domain>/api/v2/product/<code>.json from an in-memory
// table and counts requests per domain.
type fakeDomains struct {
	mu       sync.Mutex
	products map[string]map[string]string // domain -> code -> product JSON
	status   map[string]int               // domain -> forced HTTP status
	hits     map[string]int
}

func newFakeDomains() *fakeDomains {
	return &fakeDomains{
		products: map[string]map[string]string{},
		status:   map[string]int{},
		hits:     map[string]int{},
	}
}

func (f *fakeDomains) add(domain, code, product string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.products[domain] == nil {
		f.products[domain] = map[string]string{}
	}
	f.products[domain][code] = product
}

func (f *fakeDomains) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/"), "/", 2)
	domain := parts[0]
	code := strings.TrimSuffix(strings.TrimPrefix(parts[1], "api/v2/product/"), ".json")

	f.mu.Lock()
	f.hits[domain]++
	forced := f.status[domain]
	product, ok := f.products[domain][code]
	f.mu.Unlock()

	if forced != 0 {
		w.WriteHeader(forced)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintf(w, `{"code":%q,"status":0,"status_verbose":"product not found"}`, code)
		return
	}
	fmt.Fprintf(w, `{"code":%q,"status":1,"product":%s}`, code, product)
}

func (f *fakeDomains) count(domain string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[domain]
}

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := pkgdb.OpenAndUpgrade(":memory:", pkgdb.Options{})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func setupResolver(t *testing.T, fake *fakeDomains, history HistoryRecorder, opts ...Option) *Resolver {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	base := []Option{
		WithHTTPClient(srv.Client()),
		WithDomains(Domains{
			FoodPrimary:   srv.URL + "/food-ro",
			FoodMirror:    srv.URL + "/food-world",
			BeautyPrimary: srv.URL + "/beauty-ro",
			BeautyMirror:  srv.URL + "/beauty-world",
		}),
		WithHistory(history),
	}
	return NewResolver(append(base, opts...)...)
}

func TestResolvePrimaryHit(t *testing.T) {
	fake := newFakeDomains()
	fake.add("food-ro", "5941234000011", `{"product_name":"Iaurt","product_name_ro":"Iaurt grecesc","brands":"Olympus, Other","categories":"Dairies","nutriscore_grade":"b","nova_group":"3","nutriments":{"fat_100g":10,"sugars_100g":"3.5"}}`)

	db := setupTestDB(t)
	history := NewHistory(db)
	r := setupResolver(t, fake, history)

	rec, err := r.Resolve(context.Background(), "5941234000011")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !rec.Found || rec.DisplayName != "Iaurt grecesc" || rec.Brand != "Olympus" {
		t.Errorf("Unexpected record: %+v", rec)
	}
	if rec.NutriScore != "b" || rec.Nova != 3 {
		t.Errorf("Expected grade b and NOVA 3, got %q and %d", rec.NutriScore, rec.Nova)
	}
	if rec.Per100g.Sugars == nil || *rec.Per100g.Sugars != 3.5 {
		t.Errorf("Expected sugars 3.5 from a string value, got %v", rec.Per100g.Sugars)
	}
	if rec.Per100g.Salt != nil {
		t.Errorf("Expected salt to be absent, got %v", *rec.Per100g.Salt)
	}
	if fake.count("food-world") != 0 {
		t.Errorf("Mirror must not be queried after a primary hit")
	}
	if rec.IsCosmeticDomain {
		t.Errorf("Dairy product must not be marked cosmetic")
	}
}

func TestResolveMirrorOnly(t *testing.T) {
	fake := newFakeDomains()
	fake.add("food-world", "5901234123457", `{"product_name":"Mirror bar","image_small_url":"https://img/small.jpg"}`)

	db := setupTestDB(t)
	history := NewHistory(db)
	r := setupResolver(t, fake, history)

	rec, err := r.Resolve(context.Background(), "5901234123457")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if rec.DisplayName != "Mirror bar" {
		t.Errorf("Expected mirror product, got %q", rec.DisplayName)
	}
	if fake.count("food-ro") != 1 || fake.count("food-world") != 1 {
		t.Errorf("Expected one query per food domain, got %d and %d", fake.count("food-ro"), fake.count("food-world"))
	}

	list, err := history.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 1 || list[0].Code != "5901234123457" || list[0].ThumbnailURL != "https://img/small.jpg" {
		t.Errorf("Expected one history entry for the mirror product, got %+v", list)
	}
}

func TestResolveNotFound(t *testing.T) {
	fake := newFakeDomains()
	db := setupTestDB(t)
	history := NewHistory(db)
	if err := history.Upsert(context.Background(), HistoryEntry{Code: "111", DisplayName: "Earlier"}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	r := setupResolver(t, fake, history)

	rec, err := r.Resolve(context.Background(), "0000000000000")
	if !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("Expected ErrProductNotFound, got %v", err)
	}
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.Barcode != "0000000000000" {
		t.Errorf("Expected NotFoundError carrying the barcode, got %v", err)
	}
	if rec.Code != "0000000000000" || rec.Found || rec.DisplayName != "" {
		t.Errorf("Expected degenerate record, got %+v", rec)
	}

	list, _ := history.List(context.Background())
	if len(list) != 1 || list[0].Code != "111" {
		t.Errorf("History must be unchanged, got %+v", list)
	}
}

func TestResolveMalformedAndServerErrorsAreMisses(t *testing.T) {
	fake := newFakeDomains()
	fake.status["food-ro"] = http.StatusInternalServerError
	fake.add("food-world", "42", `{"product_name":"Fallback"}`)

	r := setupResolver(t, fake, nil)
	rec, err := r.Resolve(context.Background(), "42")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if rec.DisplayName != "Fallback" {
		t.Errorf("Expected mirror product, got %q", rec.DisplayName)
	}
}

func TestResolveRetriesServerErrors(t *testing.T) {
	fake := newFakeDomains()
	fake.status["food-ro"] = http.StatusServiceUnavailable

	r := setupResolver(t, fake, nil, WithRetryPolicy(RetryPolicy{
		Timeout:   time.Second,
		Attempts:  3,
		BaseDelay: time.Millisecond,
		MaxDelay:  2 * time.Millisecond,
	}))
	_, err := r.Resolve(context.Background(), "42")
	if !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("Expected ErrProductNotFound, got %v", err)
	}
	if got := fake.count("food-ro"); got != 3 {
		t.Errorf("Expected 3 attempts on primary, got %d", got)
	}
	if got := fake.count("food-world"); got != 1 {
		t.Errorf("404 must not be retried, got %d mirror requests", got)
	}
}

func TestResolveCosmeticWithBeautyHit(t *testing.T) {
	fake := newFakeDomains()
	fake.add("food-ro", "300", `{"product_name":"Crema food","categories":"Skin Care, COSMETICS","brands":"FoodBrand","quantity":"50 ml"}`)
	fake.add("beauty-world", "300", `{"product_name":"Crema hidratanta","brands":"BeautyBrand","ingredients_text":"aqua, glycerin"}`)

	r := setupResolver(t, fake, nil)
	rec, err := r.Resolve(context.Background(), "300")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !rec.IsCosmeticDomain {
		t.Errorf("Expected IsCosmeticDomain")
	}
	if rec.DisplayName != "Crema hidratanta" || rec.Brand != "BeautyBrand" || rec.Ingredients != "aqua, glycerin" {
		t.Errorf("Expected beauty fields to win, got %+v", rec)
	}
	if rec.Quantity != "50 ml" {
		t.Errorf("Expected food quantity to fill the gap, got %q", rec.Quantity)
	}
	if fake.count("beauty-ro") != 1 {
		t.Errorf("Expected beauty primary to be tried first")
	}
}

func TestResolveCosmeticWithoutBeautyHit(t *testing.T) {
	fake := newFakeDomains()
	fake.add("food-ro", "301", `{"product_name":"Sampon","categories":"Beauty products"}`)

	r := setupResolver(t, fake, nil)
	rec, err := r.Resolve(context.Background(), "301")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !rec.IsCosmeticDomain {
		t.Errorf("Expected IsCosmeticDomain without a beauty hit")
	}
	if rec.DisplayName != "Sampon" {
		t.Errorf("Expected food fields to be kept, got %q", rec.DisplayName)
	}
	if fake.count("beauty-ro") != 1 || fake.count("beauty-world") != 1 {
		t.Errorf("Expected both beauty domains to be tried")
	}
}

func TestResolveTwiceKeepsOneHistoryEntry(t *testing.T) {
	fake := newFakeDomains()
	fake.add("food-ro", "A", `{"product_name":"Alpha"}`)
	fake.add("food-ro", "B", `{"product_name":"Beta"}`)

	db := setupTestDB(t)
	history := NewHistory(db)
	r := setupResolver(t, fake, history)
	ctx := context.Background()

	for _, code := range []string{"A", "B", "A"} {
		if _, err := r.Resolve(ctx, code); err != nil {
			t.Fatalf("Resolve %s failed: %v", code, err)
		}
		list, _ := history.List(ctx)
		if list[0].Code != code {
			t.Errorf("Expected %s first after resolving it, got %s", code, list[0].Code)
		}
	}
	list, _ := history.List(ctx)
	if len(list) != 2 {
		t.Errorf("Expected 2 entries, got %d", len(list))
	}
}

func TestResolveInvalidBarcode(t *testing.T) {
	r := NewResolver()
	if _, err := r.Resolve(context.Background(), "   "); !errors.Is(err, ErrInvalidBarcode) {
		t.Errorf("Expected ErrInvalidBarcode, got %v", err)
	}
}

func TestResolveCancelled(t *testing.T) {
	fake := newFakeDomains()
	r := setupResolver(t, fake, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Resolve(ctx, "42")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestRetryPolicyBackoff(t *testing.T) {
	p := RetryPolicy{BaseDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond}
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond}
	for i, w := range want {
		if got := p.Backoff(i + 1); got != w {
			t.Errorf("Backoff(%d): expected %v, got %v", i+1, w, got)
		}
	}
}
