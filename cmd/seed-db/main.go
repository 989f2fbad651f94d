// Command seed-db loads catalog items, demo promotions, and API keys into
// the database so a fresh instance is immediately usable.
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
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/myatlin/shwecart/internal/domain/auth"
	"github.com/myatlin/shwecart/internal/domain/catalog"
	"github.com/myatlin/shwecart/internal/domain/promotion"
	"github.com/myatlin/shwecart/internal/repository"
)

type itemJSON struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Brand    string          `json:"brand"`
	Category string          `json:"category"`
}

type promotionJSON struct {
	ItemID    string `json:"itemId"`
	Discount  int    `json:"discount"`
	PromoCode string `json:"promoCode"`
	Title     string `json:"title"`
	ValidDays int    `json:"validDays"`
}

func main() {
	var (
		databaseURL  string
		itemsFile    string
		promosFile   string
		operatorKey  string
		customerKey  string
		customerID   string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&itemsFile, "items-file", "db/seed/items.json", "path to catalog items JSON file")
	flag.StringVar(&promosFile, "promotions-file", "db/seed/promotions.json", "path to promotions JSON file")
	flag.StringVar(&operatorKey, "operator-key", "", "operator API key to seed (or SHWE_SEED_OPERATOR_KEY env)")
	flag.StringVar(&customerKey, "customer-key", "", "customer API key to seed (or SHWE_SEED_CUSTOMER_KEY env)")
	flag.StringVar(&customerID, "customer-id", "demo-user", "owner ID the customer key acts as")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or SHWE_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if operatorKey == "" {
		operatorKey = os.Getenv("SHWE_SEED_OPERATOR_KEY")
	}
	if customerKey == "" {
		customerKey = os.Getenv("SHWE_SEED_CUSTOMER_KEY")
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("SHWE_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg := seedConfig{
		itemsFile:   itemsFile,
		promosFile:  promosFile,
		operatorKey: operatorKey,
		customerKey: customerKey,
		customerID:  customerID,
		pepper:      apiKeyPepper,
	}
	if err := run(ctx, databaseURL, cfg); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

type seedConfig struct {
	itemsFile   string
	promosFile  string
	operatorKey string
	customerKey string
	customerID  string
	pepper      string
}

func run(ctx context.Context, databaseURL string, cfg seedConfig) error {
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

	if err := seedItems(ctx, repository.NewItemRepository(pool), cfg.itemsFile); err != nil {
		return errors.Wrap(err, "seed items")
	}
	if err := seedPromotions(ctx, repository.NewPromotionRepository(pool), cfg.promosFile); err != nil {
		return errors.Wrap(err, "seed promotions")
	}
	if err := seedAPIKeys(ctx, repository.NewAPIKeyRepository(pool), cfg); err != nil {
		return errors.Wrap(err, "seed api keys")
	}

	return nil
}

func seedItems(ctx context.Context, repo *repository.ItemRepository, path string) error {
	slog.Info("reading items file", slog.String("path", path))

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read items file")
	}

	var items []itemJSON
	if err := json.Unmarshal(data, &items); err != nil {
		return errors.Wrap(err, "parse items JSON")
	}

	slog.Info("upserting items", slog.Int("count", len(items)))

	for _, it := range items {
		err := repo.Upsert(ctx, &catalog.Item{
			ID:       it.ID,
			Name:     it.Name,
			Price:    it.Price,
			Brand:    it.Brand,
			Category: it.Category,
		})
		if err != nil {
			return errors.Wrapf(err, "upsert item %s", it.ID)
		}
	}

	return nil
}

func seedPromotions(ctx context.Context, repo *repository.PromotionRepository, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Info("no promotions file, skipping", slog.String("path", path))
			return nil
		}
		return errors.Wrap(err, "read promotions file")
	}

	var promos []promotionJSON
	if err := json.Unmarshal(data, &promos); err != nil {
		return errors.Wrap(err, "parse promotions JSON")
	}

	slog.Info("upserting promotions", slog.Int("count", len(promos)))

	now := time.Now()
	for _, p := range promos {
		validDays := p.ValidDays
		if validDays <= 0 {
			validDays = 30
		}
		err := repo.Upsert(ctx, &promotion.Promotion{
			ID:        uuid.New().String(),
			ItemID:    p.ItemID,
			Discount:  p.Discount,
			PromoCode: p.PromoCode,
			Title:     p.Title,
			ExpiresAt: now.AddDate(0, 0, validDays),
		})
		if err != nil {
			return errors.Wrapf(err, "upsert promotion for item %s", p.ItemID)
		}
	}

	return nil
}

func seedAPIKeys(ctx context.Context, repo *repository.APIKeyRepository, cfg seedConfig) error {
	keys := []struct {
		id      string
		key     string
		name    string
		role    auth.Role
		subject string
	}{
		{id: "operator", key: cfg.operatorKey, name: "Back-office operator key", role: auth.RoleOperator},
		{id: "customer", key: cfg.customerKey, name: "Demo customer key", role: auth.RoleCustomer, subject: cfg.customerID},
	}

	for _, k := range keys {
		if k.key == "" {
			slog.Info("skipping api key, no value provided", slog.String("id", k.id))
			continue
		}

		mac := hmac.New(sha256.New, []byte(cfg.pepper))
		mac.Write([]byte(k.key))

		err := repo.Upsert(ctx, &auth.APIKeyInfo{
			ID:      k.id,
			KeyHash: hex.EncodeToString(mac.Sum(nil)),
			Name:    k.name,
			Role:    k.role,
			Subject: k.subject,
		}, true)
		if err != nil {
			return errors.Wrapf(err, "upsert api key %s", k.id)
		}

		slog.Info("upserted api key", slog.String("id", k.id), slog.String("role", string(k.role)))
	}

	return nil
}
