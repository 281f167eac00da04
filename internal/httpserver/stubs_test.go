package httpserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http/httptest"
	"strings"
	"testing"

	"feathermart/internal/domain"
	customersvc "feathermart/internal/service/customer"
	vendorsvc "feathermart/internal/service/vendor"
	"github.com/gin-gonic/gin"
)

func logDiscard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

type loginEvent struct {
	userID      string
	anonymousID string
}

type stubSessions struct {
	users      map[string]string
	anonymous  map[string]string
	loginCalls []loginEvent
}

func (s *stubSessions) ResolveActor(ctx context.Context, accessToken, anonymousToken string) domain.Actor {
	if id, ok := s.users[accessToken]; ok {
		return domain.AuthenticatedActor(id)
	}
	return domain.AnonymousActor(s.AnonymousID(ctx, anonymousToken))
}

func (s *stubSessions) AnonymousID(_ context.Context, token string) string {
	return s.anonymous[token]
}

func (s *stubSessions) NotifyLogin(_ context.Context, userID, anonymousID string) {
	s.loginCalls = append(s.loginCalls, loginEvent{userID: userID, anonymousID: anonymousID})
}

type stubCustomerService struct {
	customer *domain.Customer
	loginErr error
	signErr  error
	meErr    error
}

func (s *stubCustomerService) Signup(_ context.Context, _ customersvc.SignupInput) (*domain.Customer, error) {
	return s.customer, s.signErr
}

func (s *stubCustomerService) Login(_ context.Context, _ string, _ string) (*domain.Customer, string, error) {
	if s.loginErr != nil {
		return nil, "", s.loginErr
	}
	return s.customer, "access", nil
}

func (s *stubCustomerService) LookupByToken(_ context.Context, _ string) (*domain.Customer, error) {
	return s.customer, s.meErr
}

func (s *stubCustomerService) Logout(context.Context, string) error {
	return nil
}

func (s *stubCustomerService) AccessTTLSeconds() int {
	return 3600
}

type stubAnonymousService struct {
	issued int
}

func (s *stubAnonymousService) Issue(context.Context) (string, string, error) {
	s.issued++
	return "anon-token", "anon-1", nil
}

func (s *stubAnonymousService) TTLSeconds() int {
	return 60
}

type addCall struct {
	actor     domain.Actor
	productID string
	quantity  int
	snapshot  *domain.ProductSnapshot
}

type stubCartService struct {
	cart     *domain.Cart
	adds     []addCall
	addErr   error
	clearErr error
}

func (s *stubCartService) current() *domain.Cart {
	if s.cart == nil {
		return domain.NewCart(nil)
	}
	return s.cart
}

func (s *stubCartService) GetCart(context.Context, domain.Actor) *domain.Cart {
	return s.current()
}

func (s *stubCartService) AddItem(_ context.Context, actor domain.Actor, productID string, quantity int, snapshot *domain.ProductSnapshot) (*domain.Cart, error) {
	s.adds = append(s.adds, addCall{actor: actor, productID: productID, quantity: quantity, snapshot: snapshot})
	if s.addErr != nil {
		return nil, s.addErr
	}
	price := int64(0)
	if snapshot != nil {
		price = snapshot.UnitPriceCents
	}
	s.cart = domain.NewCart(append(s.current().Lines, domain.CartLine{ID: "line-" + productID, ProductID: productID, Quantity: quantity, Product: domain.ProductSnapshot{UnitPriceCents: price}}))
	return s.cart, nil
}

func (s *stubCartService) UpdateItemQuantity(_ context.Context, _ domain.Actor, lineID string, quantity int, _ string) (*domain.Cart, error) {
	cart := s.current()
	for i, l := range cart.Lines {
		if l.ID != lineID {
			continue
		}
		if quantity <= 0 {
			cart.Lines = append(cart.Lines[:i], cart.Lines[i+1:]...)
		} else {
			cart.Lines[i].Quantity = quantity
		}
		cart.Recalculate()
		return cart, nil
	}
	return nil, domain.ErrNotFound
}

func (s *stubCartService) RemoveItem(_ context.Context, actor domain.Actor, lineID, productID string) (*domain.Cart, error) {
	return s.UpdateItemQuantity(context.Background(), actor, lineID, 0, productID)
}

func (s *stubCartService) ClearCart(context.Context, domain.Actor) error {
	if s.clearErr != nil {
		return s.clearErr
	}
	s.cart = domain.NewCart(nil)
	return nil
}

type stubOrderService struct {
	placeErr  error
	lastActor domain.Actor
	statusErr error
}

func (s *stubOrderService) PlaceOrder(_ context.Context, actor domain.Actor, _ domain.ShippingAddress) (string, error) {
	s.lastActor = actor
	if s.placeErr != nil {
		return "", s.placeErr
	}
	return "order-1", nil
}

func (s *stubOrderService) Get(_ context.Context, userID, orderID string) (*domain.Order, error) {
	if orderID != "order-1" {
		return nil, domain.ErrNotFound
	}
	return &domain.Order{ID: orderID, UserID: userID, Status: domain.OrderStatusPending}, nil
}

func (s *stubOrderService) ListForUser(context.Context, string) ([]domain.Order, error) {
	return nil, nil
}

func (s *stubOrderService) UpdateStatus(_ context.Context, _ string, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	if s.statusErr != nil {
		return nil, s.statusErr
	}
	return &domain.Order{ID: orderID, Status: status}, nil
}

type stubProductService struct {
	products   map[string]domain.Product
	lastFilter domain.ProductFilter
}

func (s *stubProductService) Search(_ context.Context, f domain.ProductFilter) (*domain.ProductPage, error) {
	s.lastFilter = f
	return &domain.ProductPage{Results: []domain.Product{}, Limit: f.Limit, Offset: f.Offset}, nil
}

func (s *stubProductService) Get(_ context.Context, id string) (*domain.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (s *stubProductService) ListByFarm(_ context.Context, farmID string) ([]domain.Product, error) {
	var out []domain.Product
	for _, p := range s.products {
		if p.FarmID == farmID {
			out = append(out, p)
		}
	}
	return out, nil
}

type stubCategoryService struct {
	categories []domain.Category
}

func (s *stubCategoryService) List(context.Context) ([]domain.Category, error) {
	return s.categories, nil
}

type stubFarms map[string]domain.Farm

func (s stubFarms) GetByID(_ context.Context, id string) (*domain.Farm, error) {
	f, ok := s[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &f, nil
}

type stubVendorService struct {
	farmers map[string]bool
}

func (s *stubVendorService) RequireFarmer(_ context.Context, userID string) error {
	if userID == "" {
		return domain.ErrAuthenticationRequired
	}
	if !s.farmers[userID] {
		return domain.ErrForbidden
	}
	return nil
}

func (s *stubVendorService) CreateFarm(ctx context.Context, ownerID string, in vendorsvc.FarmInput) (*domain.Farm, error) {
	if err := s.RequireFarmer(ctx, ownerID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, domain.ErrInvalidRequest
	}
	return &domain.Farm{ID: "farm-1", OwnerID: ownerID, Name: in.Name}, nil
}

func (s *stubVendorService) ListFarms(ctx context.Context, ownerID string) ([]domain.Farm, error) {
	if err := s.RequireFarmer(ctx, ownerID); err != nil {
		return nil, err
	}
	return []domain.Farm{}, nil
}

func (s *stubVendorService) UpdateFarm(context.Context, string, string, vendorsvc.FarmInput) (*domain.Farm, error) {
	return nil, domain.ErrNotFound
}

func (s *stubVendorService) CreateProduct(context.Context, string, string, vendorsvc.ProductInput) (*domain.Product, error) {
	return nil, domain.ErrNotFound
}

func (s *stubVendorService) ListProducts(context.Context, string, string) ([]domain.Product, error) {
	return nil, domain.ErrNotFound
}

func (s *stubVendorService) UpdateProduct(context.Context, string, string, vendorsvc.ProductInput) (*domain.Product, error) {
	return nil, domain.ErrNotFound
}

type testEnv struct {
	sessions  *stubSessions
	customers *stubCustomerService
	anonymous *stubAnonymousService
	carts     *stubCartService
	orders    *stubOrderService
	products  *stubProductService
	router    *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	sessions := &stubSessions{
		users:     map[string]string{"buyer-token": "buyer-1", "farmer-token": "farmer-1"},
		anonymous: map[string]string{"guest-token": "guest-1"},
	}
	products := &stubProductService{products: map[string]domain.Product{
		"eggs": {ID: "eggs", FarmID: "farm-a", FarmName: "Sunny", Name: "Eggs", PriceCents: 600, Stock: 10, Available: true},
	}}
	env := &testEnv{
		sessions:  sessions,
		customers: &stubCustomerService{customer: &domain.Customer{ID: "buyer-1", Email: "me@example.com", Role: domain.RoleBuyer}},
		anonymous: &stubAnonymousService{},
		carts:     &stubCartService{},
		orders:    &stubOrderService{},
		products:  products,
	}
	router, err := buildRouter(logDiscard(), nil, Deps{
		CustomerSvc:  env.customers,
		AnonymousSvc: env.anonymous,
		Sessions:     env.sessions,
		CartSvc:      env.carts,
		OrderSvc:     env.orders,
		ProductSvc:   env.products,
		CategorySvc:  &stubCategoryService{categories: []domain.Category{{ID: "c1", Key: "eggs", Name: "Eggs", Slug: "eggs"}}},
		Farms:        stubFarms{"farm-a": {ID: "farm-a", OwnerID: "farmer-1", Name: "Sunny"}},
		VendorSvc:    &stubVendorService{farmers: map[string]bool{"farmer-1": true}},
	})
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	env.router = router
	return env
}

func (e *testEnv) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	if body == "" {
		return e.doRaw(method, path, nil, "", headers)
	}
	return e.doRaw(method, path, strings.NewReader(body), "application/json", headers)
}

func (e *testEnv) doRaw(method, path string, body io.Reader, contentType string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, status int) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("expected %d, got %d body=%s", status, rec.Code, rec.Body.String())
	}
}

func expectCode(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	expectStatus(t, rec, status)
	if !strings.Contains(rec.Body.String(), `"code":"`+code+`"`) {
		t.Fatalf("expected code %q, got body=%s", code, rec.Body.String())
	}
}

func wrap(err error) error {
	return fmt.Errorf("%w: %w", err, errors.New("cause"))
}
