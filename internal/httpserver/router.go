package httpserver

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"feathermart/internal/domain"
	customersvc "feathermart/internal/service/customer"
	vendorsvc "feathermart/internal/service/vendor"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

const anonymousTokenHeader = "X-Anonymous-Token"

type CustomerService interface {
	Signup(ctx context.Context, in customersvc.SignupInput) (*domain.Customer, error)
	Login(ctx context.Context, email, password string) (*domain.Customer, string, error)
	LookupByToken(ctx context.Context, token string) (*domain.Customer, error)
	Logout(ctx context.Context, token string) error
	AccessTTLSeconds() int
}

type AnonymousService interface {
	Issue(ctx context.Context) (token, anonymousID string, err error)
	TTLSeconds() int
}

type SessionResolver interface {
	ResolveActor(ctx context.Context, accessToken, anonymousToken string) domain.Actor
	AnonymousID(ctx context.Context, anonymousToken string) string
	NotifyLogin(ctx context.Context, userID, anonymousID string)
}

type CartService interface {
	GetCart(ctx context.Context, actor domain.Actor) *domain.Cart
	AddItem(ctx context.Context, actor domain.Actor, productID string, quantity int, snapshot *domain.ProductSnapshot) (*domain.Cart, error)
	UpdateItemQuantity(ctx context.Context, actor domain.Actor, lineID string, quantity int, productID string) (*domain.Cart, error)
	RemoveItem(ctx context.Context, actor domain.Actor, lineID, productID string) (*domain.Cart, error)
	ClearCart(ctx context.Context, actor domain.Actor) error
}

type OrderService interface {
	PlaceOrder(ctx context.Context, actor domain.Actor, address domain.ShippingAddress) (string, error)
	Get(ctx context.Context, userID, orderID string) (*domain.Order, error)
	ListForUser(ctx context.Context, userID string) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, ownerID, orderID string, status domain.OrderStatus) (*domain.Order, error)
}

type ProductService interface {
	Search(ctx context.Context, filter domain.ProductFilter) (*domain.ProductPage, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	ListByFarm(ctx context.Context, farmID string) ([]domain.Product, error)
}

type CategoryService interface {
	List(ctx context.Context) ([]domain.Category, error)
}

type FarmLookup interface {
	GetByID(ctx context.Context, id string) (*domain.Farm, error)
}

type VendorService interface {
	RequireFarmer(ctx context.Context, userID string) error
	CreateFarm(ctx context.Context, ownerID string, in vendorsvc.FarmInput) (*domain.Farm, error)
	ListFarms(ctx context.Context, ownerID string) ([]domain.Farm, error)
	UpdateFarm(ctx context.Context, ownerID, farmID string, in vendorsvc.FarmInput) (*domain.Farm, error)
	CreateProduct(ctx context.Context, ownerID, farmID string, in vendorsvc.ProductInput) (*domain.Product, error)
	ListProducts(ctx context.Context, ownerID, farmID string) ([]domain.Product, error)
	UpdateProduct(ctx context.Context, ownerID, productID string, in vendorsvc.ProductInput) (*domain.Product, error)
}

// Deps carries the services the handlers call.
type Deps struct {
	CustomerSvc  CustomerService
	AnonymousSvc AnonymousService
	Sessions     SessionResolver
	CartSvc      CartService
	OrderSvc     OrderService
	ProductSvc   ProductService
	CategorySvc  CategoryService
	Farms        FarmLookup
	VendorSvc    VendorService

	// AllowedOrigins feeds the CORS middleware. Empty disables CORS headers.
	AllowedOrigins []string
	// ReadyChecks are probed by /readyz after the database ping.
	ReadyChecks    map[string]ReadyCheck
}

type api struct {
	Deps
	logger *log.Logger
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	if deps.Sessions == nil {
		return nil, errors.New("httpserver: session resolver is required")
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	if len(deps.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     deps.AllowedOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", anonymousTokenHeader},
			ExposeHeaders:    []string{anonymousTokenHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db, deps.ReadyChecks))

	a := &api{Deps: deps, logger: logger}
	router.Use(actorMiddleware(deps.Sessions))

	auth := router.Group("/auth")
	auth.POST("/signup", a.signup)
	auth.POST("/token", a.token)
	auth.POST("/logout", a.logout)
	auth.POST("/anonymous", a.anonymousToken)
	router.GET("/me", a.me)

	router.GET("/categories", a.listCategories)
	router.GET("/products", a.searchProducts)
	router.GET("/products/:id", a.getProduct)
	router.GET("/farms/:id", a.getFarm)

	router.GET("/cart", a.getCart)
	router.DELETE("/cart", a.clearCart)
	router.POST("/cart/items", a.addCartItem)
	router.PATCH("/cart/items/:lineId", a.updateCartItem)
	router.DELETE("/cart/items/:lineId", a.removeCartItem)

	orders := router.Group("/orders", requireUser())
	orders.POST("", a.placeOrder)
	orders.GET("", a.listOrders)
	orders.GET("/:id", a.getOrder)

	vendor := router.Group("/vendor", requireUser())
	vendor.POST("/farms", a.createFarm)
	vendor.GET("/farms", a.listFarms)
	vendor.PUT("/farms/:id", a.updateFarm)
	vendor.POST("/farms/:id/products", a.createProduct)
	vendor.GET("/farms/:id/products", a.listFarmProducts)
	vendor.PUT("/products/:id", a.updateProduct)
	vendor.PATCH("/orders/:id/status", a.updateOrderStatus)

	return router, nil
}
