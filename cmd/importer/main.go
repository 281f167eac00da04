package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"feathermart/internal/config"
	"feathermart/internal/db"
	"feathermart/internal/importer"
	"feathermart/internal/repository/category"
	"feathermart/internal/repository/farm"
	"feathermart/internal/repository/product"
)

func main() {
	var (
		filePath string
		farmID   string
	)
	flag.StringVar(&filePath, "file", "", "Path to the product CSV sheet")
	flag.StringVar(&farmID, "farm", "", "Farm id to import into")
	flag.Parse()

	if filePath == "" || farmID == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	logger := log.New(os.Stdout, "[importer] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg.DBConnString, cfg.DBMaxConns)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	f, err := farm.NewPostgres(pool, logger).GetByID(ctx, farmID)
	if err != nil {
		logger.Fatalf("load farm %q: %v", farmID, err)
	}

	file, err := os.Open(filePath)
	if err != nil {
		logger.Fatalf("open file: %v", err)
	}
	defer file.Close()

	imp := importer.NewCSVImporter(file, product.NewPostgres(pool, logger), category.NewPostgres(pool), f.ID)

	start := time.Now()
	count, err := imp.Run(ctx)
	if err != nil {
		logger.Fatalf("import failed: %v", err)
	}

	fmt.Printf("Imported %d products into farm %s in %s\n", count, f.Name, time.Since(start).Truncate(time.Millisecond))
}
