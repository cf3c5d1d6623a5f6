// Command seed fills a development database with a superuser and a fake
// catalogue.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/gmja/storefront/internal/domain/catalog"
	"github.com/gmja/storefront/internal/domain/identity"
	"github.com/gmja/storefront/internal/domain/shared"
	"github.com/gmja/storefront/internal/infrastructure/config"
	"github.com/gmja/storefront/internal/infrastructure/logger"
	"github.com/gmja/storefront/internal/infrastructure/persistence"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	var (
		categories int
		products   int
		seed       uint64
		username   string
		password   string
	)
	flag.IntVar(&categories, "categories", 5, "Number of categories to create")
	flag.IntVar(&products, "products", 40, "Number of products to create")
	flag.Uint64Var(&seed, "seed", 0, "Random seed (0 = random)")
	flag.StringVar(&username, "superuser", "admin", "Superuser to create when missing (empty = none)")
	flag.StringVar(&password, "password", "", "Superuser password (default: $GMJA_SUPERUSER_PASSWORD)")
	flag.Parse()

	log, err := logger.New(logger.Config{Level: "info", Format: "console", Output: "stdout"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	db, err := persistence.NewDatabase(&cfg.Database, persistence.Options{Logger: log})
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	ctx := context.Background()
	if cfg.Database.Driver == "sqlite" {
		if err := persistence.AutoMigrate(ctx, db.DB); err != nil {
			log.Fatal("Failed to create schema", zap.Error(err))
		}
	}

	if username != "" {
		if password == "" {
			password = os.Getenv("GMJA_SUPERUSER_PASSWORD")
		}
		if err := ensureSuperuser(ctx, persistence.NewGormUserRepository(db.DB), username, password); err != nil {
			log.Fatal("Failed to create superuser", zap.Error(err))
		}
		log.Info("Superuser ready", zap.String("username", username))
	}

	s := &seeder{
		faker:      gofakeit.New(seed),
		categories: persistence.NewGormCategoryRepository(db.DB),
		products:   persistence.NewGormProductRepository(db.DB),
	}
	ids, err := s.seedCategories(ctx, categories)
	if err != nil {
		log.Fatal("Failed to seed categories", zap.Error(err))
	}
	if err := s.seedProducts(ctx, products, ids); err != nil {
		log.Fatal("Failed to seed products", zap.Error(err))
	}
	log.Info("Catalogue seeded", zap.Int("categories", len(ids)), zap.Int("products", products))
}

func ensureSuperuser(ctx context.Context, users *persistence.GormUserRepository, username, password string) error {
	_, err := users.FindByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return err
	}
	if password == "" {
		return errors.New("a password is required for a new superuser")
	}
	u, err := identity.NewSuperuser(username, username+"@localhost", password)
	if err != nil {
		return err
	}
	return users.Create(ctx, u)
}

type seeder struct {
	faker      *gofakeit.Faker
	categories *persistence.GormCategoryRepository
	products   *persistence.GormProductRepository
}

func (s *seeder) seedCategories(ctx context.Context, n int) ([]uint, error) {
	ids := make([]uint, 0, n)
	for i := 0; i < n; i++ {
		name := s.faker.ProductCategory()
		c, err := catalog.NewCategory(name, fmt.Sprintf("%s-%d", catalog.Slugify(name), i+1), s.faker.Sentence(12))
		if err != nil {
			return nil, err
		}
		if err := s.categories.Save(ctx, c); err != nil {
			return nil, err
		}
		ids = append(ids, c.ID)
	}
	return ids, nil
}

func (s *seeder) seedProducts(ctx context.Context, n int, categoryIDs []uint) error {
	for i := 0; i < n; i++ {
		in := catalog.ProductInput{
			Title:       s.faker.ProductName(),
			UPC:         s.faker.Numerify("############"),
			Description: s.faker.ProductDescription(),
			Brand:       s.faker.Company(),
			Price:       decimal.NewFromFloat(s.faker.Price(2, 250)).Round(2),
			Stock:       s.faker.IntRange(0, 100),
			IsActive:    true,
			IsFeatured:  s.faker.Bool(),
		}
		if len(categoryIDs) > 0 {
			id := categoryIDs[s.faker.IntRange(0, len(categoryIDs)-1)]
			in.CategoryID = &id
		}
		p, err := catalog.NewProduct(in)
		if err != nil {
			return err
		}
		if err := s.products.Save(ctx, p); err != nil {
			return err
		}
	}
	return nil
}
