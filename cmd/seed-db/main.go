// Command seed-db provisions a database with demo catalog data, promotion
// rules, the tax rate, and an API key for local development and testing.
package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/opencaisse/pos-api/internal/domain/auth"
	"github.com/opencaisse/pos-api/internal/domain/product"
	"github.com/opencaisse/pos-api/internal/domain/promotion"
	"github.com/opencaisse/pos-api/internal/repository"
)

type productJSON struct {
	ID       string          `json:"id"`
	SKU      string          `json:"sku"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category"`
	Stock    int             `json:"stock"`
}

func main() {
	var (
		databaseURL  string
		productsFile string
		taxRate      string
		apiKey       string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&taxRate, "tax-rate", "0.08", "tax rate as a decimal fraction")
	flag.StringVar(&apiKey, "api-key", "", "API key to seed (or POS_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or POS_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("POS_SEED_API_KEY")
	}
	if apiKey == "" {
		slog.Error("API key is required: set --api-key or POS_SEED_API_KEY")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("POS_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, taxRate, apiKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, taxRate, apiKey, pepper string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, repository.NewProductRepository(pool), productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}
	if err := seedPromotions(ctx, repository.NewPromotionRepository(pool)); err != nil {
		return errors.Wrap(err, "seed promotions")
	}
	if err := seedSettings(ctx, repository.NewSettingsRepository(pool), taxRate); err != nil {
		return errors.Wrap(err, "seed settings")
	}
	if err := seedAPIKey(ctx, repository.NewAPIKeyRepository(pool), apiKey, pepper); err != nil {
		return errors.Wrap(err, "seed api key")
	}
	return nil
}

func seedProducts(ctx context.Context, repo *repository.ProductRepository, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	slog.Info("upserting products", slog.Int("count", len(products)))

	for _, p := range products {
		err := repo.Upsert(ctx, &product.Product{
			ID:       p.ID,
			SKU:      p.SKU,
			Name:     p.Name,
			Price:    p.Price,
			Category: p.Category,
			Stock:    p.Stock,
		})
		if err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}
		slog.Info("upserted product", slog.String("id", p.ID), slog.String("name", p.Name))
	}
	return nil
}

func seedPromotions(ctx context.Context, repo *repository.PromotionRepository) error {
	slog.Info("seeding demo promotions")

	promos := []promotion.Promotion{
		{
			Code:        "HAPPYHOURS",
			Type:        promotion.TypePercentage,
			Value:       decimal.NewFromInt(18),
			Description: "Happy Hours: 18% off entire sale",
			Active:      true,
		},
		{
			// Stored lowercase on purpose: lookups are case-insensitive on
			// both sides.
			Code:        "summer10",
			Type:        promotion.TypePercentage,
			Value:       decimal.NewFromInt(10),
			Description: "Summer promo: 10% off",
			Active:      true,
		},
		{
			Code:        "TENOFF",
			Type:        promotion.TypeFixed,
			Value:       decimal.NewFromInt(10),
			MinQuantity: 2,
			Description: "$10 off your purchase",
			Active:      true,
		},
	}

	for i := range promos {
		promos[i].ID = uuid.New().String()
		if err := repo.Upsert(ctx, &promos[i]); err != nil {
			return errors.Wrapf(err, "upsert promotion %s", promos[i].Code)
		}
		slog.Info("upserted promotion", slog.String("code", promos[i].Code))
	}
	return nil
}

func seedSettings(ctx context.Context, repo *repository.SettingsRepository, taxRate string) error {
	rate, err := decimal.NewFromString(taxRate)
	if err != nil {
		return errors.Wrap(err, "parse tax rate")
	}

	slog.Info("setting tax rate", slog.String("rate", rate.String()))
	return repo.SetTaxRate(ctx, rate)
}

func seedAPIKey(ctx context.Context, repo *repository.APIKeyRepository, apiKey, pepper string) error {
	slog.Info("seeding default API key")

	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(apiKey))
	keyHash := hex.EncodeToString(mac.Sum(nil))

	err := repo.Upsert(ctx, &auth.APIKeyInfo{
		ID:      "default",
		KeyHash: keyHash,
		Name:    "Default test key",
		Scopes:  []string{"checkout", "caisse"},
	}, true)
	if err != nil {
		return errors.Wrap(err, "upsert default API key")
	}

	slog.Info("upserted API key", slog.String("id", "default"))
	return nil
}
