package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/blessingcarter623/amatymasocialapp/internal/domain/auth"
	"github.com/blessingcarter623/amatymasocialapp/internal/domain/directory"
	"github.com/blessingcarter623/amatymasocialapp/internal/domain/product"
	"github.com/blessingcarter623/amatymasocialapp/internal/storage/postgres"
)

type productJSON struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category"`
	Image    string          `json:"image"`
	Sizes    []string        `json:"sizes"`
	InStock  bool            `json:"inStock"`
}

type businessJSON struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
	Department  string `json:"department"`
	Province    string `json:"province"`
	City        string `json:"city"`
	Location    string `json:"location"`
	Contact     struct {
		Phone    string `json:"phone"`
		Email    string `json:"email"`
		Website  string `json:"website"`
		WhatsApp string `json:"whatsapp"`
	} `json:"contact"`
	Social struct {
		Facebook  string `json:"facebook"`
		Instagram string `json:"instagram"`
		Twitter   string `json:"twitter"`
		LinkedIn  string `json:"linkedin"`
		TikTok    string `json:"tiktok"`
	} `json:"social"`
	Images []string `json:"images"`
}

const seedOwner = "amatyma-admin"

func main() {
	var (
		databaseURL    string
		productsFile   string
		businessesFile string
		apiKey         string
		apiKeyPepper   string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&businessesFile, "businesses-file", "db/seed/businesses.json", "path to businesses JSON file")
	flag.StringVar(&apiKey, "api-key", "", "API key to seed (or AMATYMA_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or AMATYMA_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("AMATYMA_SEED_API_KEY")
	}
	if apiKey == "" {
		slog.Error("API key is required: set --api-key or AMATYMA_SEED_API_KEY")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("AMATYMA_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, businessesFile, apiKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, businessesFile, apiKey, pepper string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, pool, productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if err := seedBusinesses(ctx, pool, businessesFile); err != nil {
		return errors.Wrap(err, "seed businesses")
	}

	if err := seedAPIKey(ctx, pool, apiKey, pepper); err != nil {
		return errors.Wrap(err, "seed api key")
	}

	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read %s", path)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrapf(err, "parse %s", path)
	}
	return nil
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	var products []productJSON
	if err := readJSON(productsFile, &products); err != nil {
		return err
	}

	slog.Info("upserting products", slog.Int("count", len(products)))

	repo := postgres.NewProductRepository(pool)
	for _, pj := range products {
		p := product.Product{
			ID:       pj.ID,
			Name:     pj.Name,
			Price:    pj.Price,
			Image:    pj.Image,
			Category: pj.Category,
			Sizes:    pj.Sizes,
			InStock:  pj.InStock,
		}
		if err := p.Validate(); err != nil {
			return errors.Wrapf(err, "product %s", pj.ID)
		}
		if err := repo.Upsert(ctx, &p); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}

		slog.Info("upserted product", slog.String("id", p.ID), slog.String("name", p.Name))
	}

	return nil
}

func seedBusinesses(ctx context.Context, pool *pgxpool.Pool, businessesFile string) error {
	slog.Info("reading businesses file", slog.String("path", businessesFile))

	var businesses []businessJSON
	if err := readJSON(businessesFile, &businesses); err != nil {
		return err
	}

	slog.Info("upserting businesses", slog.Int("count", len(businesses)))

	repo := postgres.NewBusinessRepository(pool)
	now := time.Now().UTC()
	for _, bj := range businesses {
		b := directory.Business{
			ID:          uuid.NewString(),
			OwnerID:     seedOwner,
			Name:        bj.Name,
			Description: bj.Description,
			Category:    bj.Category,
			Subcategory: bj.Subcategory,
			Location:    bj.Location,
			Province:    bj.Province,
			City:        bj.City,
			Department:  bj.Department,
			Contact: directory.Contact{
				Phone:    bj.Contact.Phone,
				Email:    bj.Contact.Email,
				Website:  bj.Contact.Website,
				WhatsApp: bj.Contact.WhatsApp,
			},
			Social: directory.Social{
				Facebook:  bj.Social.Facebook,
				Instagram: bj.Social.Instagram,
				Twitter:   bj.Social.Twitter,
				LinkedIn:  bj.Social.LinkedIn,
				TikTok:    bj.Social.TikTok,
			},
			Images:    bj.Images,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := b.Validate(); err != nil {
			return errors.Wrapf(err, "business %q", bj.Name)
		}
		inserted, err := repo.Upsert(ctx, &b)
		if err != nil {
			return errors.Wrapf(err, "upsert business %q", b.Name)
		}

		slog.Info("upserted business", slog.String("name", b.Name), slog.Bool("inserted", inserted))
	}

	return nil
}

func seedAPIKey(ctx context.Context, pool *pgxpool.Pool, apiKey, pepper string) error {
	slog.Info("seeding API key")

	info := auth.APIKeyInfo{
		ID:      "seed-key",
		KeyHash: auth.HashAPIKey([]byte(pepper), apiKey),
		Name:    "Seed Key",
		OwnerID: seedOwner,
	}
	if err := postgres.NewAPIKeyRepository(pool).Upsert(ctx, info); err != nil {
		return err
	}

	slog.Info("API key seeded", slog.String("id", info.ID))
	return nil
}
