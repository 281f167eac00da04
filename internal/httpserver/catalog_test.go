package httpserver

import (
	"net/http"
	"strings"
	"testing"

	"feathermart/internal/domain"
)

func TestSearchProducts_ParsesQuery(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/products?q=eggs&category=layers&farmId=farm-a&minPrice=100&maxPrice=900&inStock=true&sort=price_asc&limit=5&offset=10", "", nil)

	expectStatus(t, rec, http.StatusOK)
	f := env.products.lastFilter
	if f.Text != "eggs" || f.Category != "layers" || f.FarmID != "farm-a" || !f.InStockOnly || f.Sort != domain.SortPriceAsc {
		t.Fatalf("unexpected filter %+v", f)
	}
	if f.MinPriceCents == nil || *f.MinPriceCents != 100 || f.MaxPriceCents == nil || *f.MaxPriceCents != 900 {
		t.Fatalf("unexpected price bounds %+v", f)
	}
	if f.Limit != 5 || f.Offset != 10 {
		t.Fatalf("unexpected paging %+v", f)
	}
}

func TestSearchProducts_RejectsBadNumbers(t *testing.T) {
	env := newTestEnv(t)

	for _, q := range []string{"minPrice=abc", "maxPrice=-1", "limit=ten", "inStock=maybe"} {
		rec := env.do(http.MethodGet, "/products?"+q, "", nil)
		expectCode(t, rec, http.StatusBadRequest, "invalid_request")
	}
}

func TestGetProduct(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/products/eggs", "", nil)
	expectStatus(t, rec, http.StatusOK)

	rec = env.do(http.MethodGet, "/products/ghost", "", nil)
	expectCode(t, rec, http.StatusNotFound, "not_found")
}

func TestGetFarm_IncludesProducts(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/farms/farm-a", "", nil)
	expectStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), `"name":"Sunny"`) || !strings.Contains(rec.Body.String(), `"id":"eggs"`) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestListCategories(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/categories", "", nil)
	expectStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), `"total":1`) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestVendorRoutes(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/vendor/farms", `{"name":"Sunny"}`, nil)
	expectCode(t, rec, http.StatusUnauthorized, "authentication_required")

	rec = env.do(http.MethodPost, "/vendor/farms", `{"name":"Sunny"}`, bearer("buyer-token"))
	expectCode(t, rec, http.StatusForbidden, "forbidden")

	rec = env.do(http.MethodPost, "/vendor/farms", `{"name":"Sunny"}`, bearer("farmer-token"))
	expectStatus(t, rec, http.StatusCreated)

	rec = env.do(http.MethodPut, "/vendor/products/someone-elses", `{"name":"x","priceCents":1}`, bearer("farmer-token"))
	expectCode(t, rec, http.StatusNotFound, "not_found")
}
