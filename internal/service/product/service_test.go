package product

import (
	"context"
	"testing"

	"feathermart/internal/domain"
)

type recordingRepo struct {
	lastFilter domain.ProductFilter
	calls      int
	results    []domain.Product
	total      int
}

func (r *recordingRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	for _, p := range r.results {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *recordingRepo) GetByIDs(context.Context, []string) (map[string]domain.Product, error) {
	return map[string]domain.Product{}, nil
}

func (r *recordingRepo) Search(_ context.Context, f domain.ProductFilter) ([]domain.Product, int, error) {
	r.calls++
	r.lastFilter = f
	return r.results, r.total, nil
}

func (r *recordingRepo) ListByFarm(context.Context, string) ([]domain.Product, error) {
	return r.results, nil
}

func (r *recordingRepo) Create(_ context.Context, p domain.Product) (*domain.Product, error) {
	return &p, nil
}

func (r *recordingRepo) Update(_ context.Context, p domain.Product) (*domain.Product, error) {
	return &p, nil
}

func (r *recordingRepo) Upsert(_ context.Context, p domain.Product) (*domain.Product, error) {
	return &p, nil
}

func (r *recordingRepo) DecrementStock(context.Context, string, int) error {
	return nil
}

func TestSearchNormalizesFilter(t *testing.T) {
	repo := &recordingRepo{}
	svc := New(repo)

	page, err := svc.Search(context.Background(), domain.ProductFilter{Text: "  eggs ", Limit: 500, Offset: -3, Sort: "bogus"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if repo.lastFilter.Text != "eggs" || repo.lastFilter.Limit != domain.MaxSearchLimit || repo.lastFilter.Offset != 0 || repo.lastFilter.Sort != domain.SortNewest {
		t.Fatalf("unexpected filter passed to repo: %+v", repo.lastFilter)
	}
	if page.Results == nil || page.Limit != domain.MaxSearchLimit {
		t.Fatalf("unexpected page %+v", page)
	}
}

func TestSearchInvertedPriceRangeSkipsQuery(t *testing.T) {
	repo := &recordingRepo{}
	svc := New(repo)
	lo, hi := int64(900), int64(100)

	page, err := svc.Search(context.Background(), domain.ProductFilter{MinPriceCents: &lo, MaxPriceCents: &hi})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if repo.calls != 0 || page.Total != 0 || len(page.Results) != 0 {
		t.Fatalf("expected empty page without query, calls=%d page=%+v", repo.calls, page)
	}
}

func TestGet(t *testing.T) {
	repo := &recordingRepo{results: []domain.Product{{ID: "p1", Name: "Eggs"}}}
	svc := New(repo)

	p, err := svc.Get(context.Background(), "p1")
	if err != nil || p.Name != "Eggs" {
		t.Fatalf("Get: %v %+v", err, p)
	}
	if _, err := svc.Get(context.Background(), "nope"); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
