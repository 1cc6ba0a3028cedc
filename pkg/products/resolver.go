package products

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	nutriscan "github.com/unowned-ai/nutriscan/pkg"
	"github.com/unowned-ai/nutriscan/pkg/utils"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidBarcode  = errors.New("invalid barcode")
)

// NotFoundError reports a barcode that no domain knows about.
type NotFoundError struct {
	Barcode string
}

// CreateHint tells the user how to add a product no database knows about.
const CreateHint = "photograph its ingredient and nutrition labels and run 'nutriscan ai product-images' (POST /ai/product-images) to analyse it"

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.Barcode)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrProductNotFound
}

// Domains are the base URLs queried in order. Tests point them at
// httptest servers.
type Domains struct {
	FoodPrimary   string
	FoodMirror    string
	BeautyPrimary string
	BeautyMirror  string
}

func DefaultDomains() Domains {
	return Domains{
		FoodPrimary:   "https://ro.openfoodfacts.org",
		FoodMirror:    "https://world.openfoodfacts.org",
		BeautyPrimary: "https://ro.openbeautyfacts.org",
		BeautyMirror:  "https://world.openbeautyfacts.org",
	}
}

// RetryPolicy bounds a single domain query. Attempts counts the first try,
// so 1 means no retry. Backoff doubles from BaseDelay up to MaxDelay.
type RetryPolicy struct {
	Timeout   time.Duration
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Timeout:   10 * time.Second,
		Attempts:  1,
		BaseDelay: 500 * time.Millisecond,
		MaxDelay:  5 * time.Second,
	}
}

// Backoff returns the wait before retry number n (1-based).
func (p RetryPolicy) Backoff(n int) time.Duration {
	if p.BaseDelay <= 0 {
		return 0
	}
	d := float64(p.BaseDelay) * math.Pow(2, float64(n-1))
	if p.MaxDelay > 0 {
		d = math.Min(d, float64(p.MaxDelay))
	}
	return time.Duration(d)
}

// HistoryRecorder receives an entry for every successful resolution.
type HistoryRecorder interface {
	Upsert(ctx context.Context, entry HistoryEntry) error
}

type Resolver struct {
	client    *http.Client
	domains   Domains
	retry     RetryPolicy
	history   HistoryRecorder
	logger    *slog.Logger
	userAgent string
}

type Option func(*Resolver)

func WithHTTPClient(c *http.Client) Option {
	return func(r *Resolver) { r.client = c }
}

func WithDomains(d Domains) Option {
	return func(r *Resolver) { r.domains = d }
}

func WithRetryPolicy(p RetryPolicy) Option {
	return func(r *Resolver) { r.retry = p }
}

func WithHistory(h HistoryRecorder) Option {
	return func(r *Resolver) { r.history = h }
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.logger = utils.Component(l, "resolver") }
}

func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		domains:   DefaultDomains(),
		retry:     DefaultRetryPolicy(),
		logger:    utils.Component(nil, "resolver"),
		userAgent: "nutriscan/" + nutriscan.Version,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.client == nil {
		r.client = &http.Client{Timeout: r.retry.Timeout}
	}
	if r.retry.Attempts < 1 {
		r.retry.Attempts = 1
	}
	return r
}

// Resolve looks a barcode up in the food domains, then the beauty domains
// when the food record is categorised as a cosmetic. On a miss it returns
// the degenerate record together with a *NotFoundError.
func (r *Resolver) Resolve(ctx context.Context, barcode string) (ProductRecord, error) {
	code := strings.TrimSpace(barcode)
	if code == "" {
		return ProductRecord{}, ErrInvalidBarcode
	}

	food, found, err := r.firstHit(ctx, code, r.domains.FoodPrimary, r.domains.FoodMirror)
	if err != nil {
		return Degenerate(code), err
	}
	if !found {
		return Degenerate(code), &NotFoundError{Barcode: code}
	}

	rec := food
	if looksCosmetic(food) {
		beauty, ok, err := r.firstHit(ctx, code, r.domains.BeautyPrimary, r.domains.BeautyMirror)
		if err != nil {
			return Degenerate(code), err
		}
		if ok {
			rec = mergePreferring(beauty, food)
		}
		rec.IsCosmeticDomain = true
	}

	if r.history != nil {
		if err := r.history.Upsert(ctx, EntryFromRecord(rec)); err != nil {
			return rec, fmt.Errorf("failed to record history for %s: %w", code, err)
		}
	}
	return rec, nil
}

// firstHit queries the domains in order and stops at the first hit. Only
// context cancellation is returned as an error; everything else is a miss.
func (r *Resolver) firstHit(ctx context.Context, code string, domains ...string) (ProductRecord, bool, error) {
	for _, base := range domains {
		if base == "" {
			continue
		}
		rec, ok, err := r.query(ctx, base, code)
		if err != nil {
			return ProductRecord{}, false, err
		}
		if ok {
			r.logger.Debug("product hit", "code", code, "domain", base)
			return rec, true, nil
		}
	}
	return ProductRecord{}, false, nil
}

func (r *Resolver) query(ctx context.Context, base, code string) (ProductRecord, bool, error) {
	endpoint := fmt.Sprintf("%s/api/v2/product/%s.json", strings.TrimRight(base, "/"), url.PathEscape(code))

	for attempt := 1; attempt <= r.retry.Attempts; attempt++ {
		if attempt > 1 {
			wait := r.retry.Backoff(attempt - 1)
			select {
			case <-ctx.Done():
				return ProductRecord{}, false, ctx.Err()
			case <-time.After(wait):
			}
		}

		rec, ok, retryable, err := r.fetch(ctx, endpoint, code)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ProductRecord{}, false, ctxErr
		}
		if err == nil {
			return rec, ok, nil
		}
		r.logger.Warn("domain query failed", "endpoint", endpoint, "attempt", attempt, "error", err)
		if !retryable {
			break
		}
	}
	return ProductRecord{}, false, nil
}

// fetch performs one GET. retryable is set for transport errors, 429 and 5xx.
func (r *Resolver) fetch(ctx context.Context, endpoint, code string) (rec ProductRecord, found, retryable bool, err error) {
	reqCtx := ctx
	if r.retry.Timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, r.retry.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return ProductRecord{}, false, false, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return ProductRecord{}, false, true, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return ProductRecord{}, false, true, fmt.Errorf("upstream status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		// 404 is how the v2 API reports unknown products.
		return ProductRecord{}, false, false, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return ProductRecord{}, false, true, err
	}
	rec, found, err = ParseResponse(code, body)
	if err != nil {
		return ProductRecord{}, false, false, err
	}
	return rec, found, false, nil
}
