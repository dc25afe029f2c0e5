package main

import (
	"fmt"
	"log"
	"os"

	"github.com/shopspring/decimal"

	"github.com/smartsave/backend/config"
	httpDelivery "github.com/smartsave/backend/internal/delivery/http"
	"github.com/smartsave/backend/internal/domain"
	"github.com/smartsave/backend/internal/infrastructure/cache"
	"github.com/smartsave/backend/internal/retailer"
	"github.com/smartsave/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting SmartSave Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Data dir: %s", cfg.Data.Dir)

	// Initialize infrastructure dependencies
	fileCache, err := cache.NewFileCache(cfg.Data.Dir)
	if err != nil {
		log.Fatalf("Failed to initialize source cache: %v", err)
	}
	// Memory layer on top of the CSV files: repeat queries inside a TTL
	// window skip the re-read and re-parse.
	sourceCache := cache.NewMemoryCache(fileCache)
	defer sourceCache.Close()

	// Configure retailer clients
	var retailers []domain.Retailer
	if cfg.Retailers.Walmart.Enabled {
		retailers = append(retailers,
			retailer.NewWalmart(cfg.Retailers.Walmart, cfg.Browser, sourceCache, cfg.Data.Dir))
	}
	if cfg.Retailers.SaveOnFoods.Enabled {
		retailers = append(retailers,
			retailer.NewSaveOnFoods(cfg.Retailers.SaveOnFoods, cfg.Browser, sourceCache, cfg.Data.Dir))
	}
	if cfg.Retailers.PCExpress.Enabled {
		for _, client := range retailer.NewPCExpress(cfg.Retailers.PCExpress, cfg.Browser, sourceCache, cfg.Data.Dir) {
			retailers = append(retailers, client)
		}
	}
	for _, r := range retailers {
		log.Printf("Retailer enabled: %s", r.Name())
	}
	if len(retailers) == 0 {
		log.Printf("WARNING: no retailers enabled - live search will always return empty results")
	}

	// Initialize usecase layer
	aggregator := usecase.NewAggregator(retailers, usecase.AggregatorConfig{
		DefaultPageSize: cfg.Search.DefaultPageSize,
		MaxPageSize:     cfg.Search.MaxPageSize,
		RetailerLimit:   cfg.Search.RetailerLimit,
	})

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(aggregator, cfg.Data.CatalogPath, cfg.Search.Timeout)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)

	// Prices serialize as JSON numbers, not quoted strings
	decimal.MarshalJSONWithoutQuotes = true
}
