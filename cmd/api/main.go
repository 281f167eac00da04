package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"feathermart/internal/anoncart"
	"feathermart/internal/config"
	"feathermart/internal/db"
	"feathermart/internal/httpserver"
	"feathermart/internal/notify"
	cartrepo "feathermart/internal/repository/cart"
	categoryrepo "feathermart/internal/repository/category"
	customerrepo "feathermart/internal/repository/customer"
	farmrepo "feathermart/internal/repository/farm"
	orderrepo "feathermart/internal/repository/order"
	productrepo "feathermart/internal/repository/product"
	tokenrepo "feathermart/internal/repository/token"
	anonymoussvc "feathermart/internal/service/anonymous"
	cartsvc "feathermart/internal/service/cart"
	categorysvc "feathermart/internal/service/category"
	customersvc "feathermart/internal/service/customer"
	ordersvc "feathermart/internal/service/order"
	productsvc "feathermart/internal/service/product"
	"feathermart/internal/service/session"
	vendorsvc "feathermart/internal/service/vendor"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	if cfg.UsesDefaultAnonymousSecret() {
		logger.Printf("WARNING: ANON_TOKEN_SECRET not set; anonymous tokens are signed with the development secret")
	}

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString, cfg.DBMaxConns)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		// Guest carts degrade to empty reads until redis is back.
		logger.Printf("redis ping failed addr=%s error=%v", cfg.RedisAddr, err)
	}

	pricing, err := ordersvc.ParsePricing(cfg.TaxRate, cfg.ShippingCents)
	if err != nil {
		logger.Fatalf("pricing config: %v", err)
	}

	var mailer notify.Mailer = notify.NewLogMailer(logger)
	if cfg.SendGridAPIKey != "" {
		mailer = notify.NewSendGrid(cfg.SendGridAPIKey, cfg.MailFrom, logger)
	}

	customerRepo := customerrepo.NewPostgres(dbpool, logger)
	customerService := customersvc.New(customerRepo, tokenrepo.NewPostgres(dbpool), logger)
	anonymousService := anonymoussvc.New(cfg.AnonymousTokenSecret, cfg.AnonymousCartTTL)
	resolver := session.NewResolver(customerService, anonymousService, logger)

	productRepo := productrepo.NewPostgres(dbpool, logger)
	productService := productsvc.New(productRepo)
	categoryService := categorysvc.New(categoryrepo.NewPostgres(dbpool))
	farmRepo := farmrepo.NewPostgres(dbpool, logger)
	vendorService := vendorsvc.New(customerRepo, farmRepo, productRepo, logger)

	cartService := cartsvc.New(cartrepo.NewPostgres(dbpool), anoncart.NewRedisStore(rdb, cfg.AnonymousCartTTL), productRepo, logger)
	resolver.OnAuthStateChange(cartService.HandleAuthStateChange)
	orderService := ordersvc.New(orderrepo.NewPostgres(dbpool, logger), cartService, productRepo, mailer, pricing, logger)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		CustomerSvc:    customerService,
		AnonymousSvc:   anonymousService,
		Sessions:       resolver,
		CartSvc:        cartService,
		OrderSvc:       orderService,
		ProductSvc:     productService,
		CategorySvc:    categoryService,
		Farms:          farmRepo,
		VendorSvc:      vendorService,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		ReadyChecks: map[string]httpserver.ReadyCheck{
			"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
