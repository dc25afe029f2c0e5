package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	// Clean up environment before tests
	cleanupEnv := func() {
		os.Unsetenv("SMARTSAVE_SERVER_PORT")
		os.Unsetenv("SMARTSAVE_SERVER_ENVIRONMENT")
		os.Unsetenv("SMARTSAVE_DATA_DIR")
		os.Unsetenv("SMARTSAVE_DATA_CATALOG_PATH")
		os.Unsetenv("SMARTSAVE_SEARCH_DEFAULT_PAGE_SIZE")
		os.Unsetenv("SMARTSAVE_SEARCH_MAX_PAGE_SIZE")
		os.Unsetenv("SMARTSAVE_SEARCH_RETAILER_LIMIT")
		os.Unsetenv("SMARTSAVE_BROWSER_HEADLESS")
		os.Unsetenv("SMARTSAVE_RETAILERS_WALMART_TTL")
		os.Unsetenv("SMARTSAVE_RETAILERS_SAVEONFOODS_STORE_ID")
		os.Unsetenv("SMARTSAVE_RETAILERS_SAVEONFOODS_ENABLED")
		os.Unsetenv("SMARTSAVE_RETAILERS_PCEXPRESS_POSTAL_CODE")
	}

	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		cleanupEnv()
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		// Check defaults
		if cfg.Server.Port != "8080" {
			t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
		}
		if cfg.Server.Environment != "development" {
			t.Errorf("Server.Environment = %s, want development", cfg.Server.Environment)
		}
		if cfg.Data.Dir != "./data" {
			t.Errorf("Data.Dir = %s, want ./data", cfg.Data.Dir)
		}
		if cfg.Search.DefaultPageSize != 20 {
			t.Errorf("Search.DefaultPageSize = %d, want 20", cfg.Search.DefaultPageSize)
		}
		if cfg.Search.MaxPageSize != 50 {
			t.Errorf("Search.MaxPageSize = %d, want 50", cfg.Search.MaxPageSize)
		}
		if cfg.Search.RetailerLimit != 12 {
			t.Errorf("Search.RetailerLimit = %d, want 12", cfg.Search.RetailerLimit)
		}
		if !cfg.Browser.Headless {
			t.Error("Browser.Headless = false, want true")
		}
		if cfg.Retailers.Walmart.TTL != time.Hour {
			t.Errorf("Retailers.Walmart.TTL = %v, want 1h", cfg.Retailers.Walmart.TTL)
		}
		if cfg.Retailers.SaveOnFoods.TTL != 2*time.Hour {
			t.Errorf("Retailers.SaveOnFoods.TTL = %v, want 2h", cfg.Retailers.SaveOnFoods.TTL)
		}
		if cfg.Retailers.PCExpress.TTL != 6*time.Hour {
			t.Errorf("Retailers.PCExpress.TTL = %v, want 6h", cfg.Retailers.PCExpress.TTL)
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		cleanupEnv()
		defer cleanupEnv()

		os.Setenv("SMARTSAVE_SERVER_PORT", "9090")
		os.Setenv("SMARTSAVE_DATA_DIR", "/tmp/smartsave")
		os.Setenv("SMARTSAVE_RETAILERS_WALMART_TTL", "30m")
		os.Setenv("SMARTSAVE_RETAILERS_SAVEONFOODS_STORE_ID", "2001")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
		if cfg.Data.Dir != "/tmp/smartsave" {
			t.Errorf("Data.Dir = %s, want /tmp/smartsave", cfg.Data.Dir)
		}
		if cfg.Retailers.Walmart.TTL != 30*time.Minute {
			t.Errorf("Retailers.Walmart.TTL = %v, want 30m", cfg.Retailers.Walmart.TTL)
		}
		if cfg.Retailers.SaveOnFoods.StoreID != "2001" {
			t.Errorf("Retailers.SaveOnFoods.StoreID = %s, want 2001", cfg.Retailers.SaveOnFoods.StoreID)
		}
	})

	t.Run("rejects default page size above max", func(t *testing.T) {
		cleanupEnv()
		defer cleanupEnv()

		os.Setenv("SMARTSAVE_SEARCH_DEFAULT_PAGE_SIZE", "100")
		os.Setenv("SMARTSAVE_SEARCH_MAX_PAGE_SIZE", "50")

		if _, err := Load(); err == nil {
			t.Error("Load() error = nil, want page size validation error")
		}
	})
}
