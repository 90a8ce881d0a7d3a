package main

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storepos-backend/internal/categories"
	product "github.com/angelmondragon/storepos-backend/internal/products"
	"github.com/angelmondragon/storepos-backend/internal/stores"
	"github.com/angelmondragon/storepos-backend/internal/users"
	"github.com/angelmondragon/storepos-backend/pkg/config"
	"github.com/angelmondragon/storepos-backend/pkg/db"
	"github.com/angelmondragon/storepos-backend/pkg/db/models"
	"github.com/angelmondragon/storepos-backend/pkg/enums"
	"github.com/angelmondragon/storepos-backend/pkg/logger"
	"github.com/angelmondragon/storepos-backend/pkg/migrate"
	"github.com/angelmondragon/storepos-backend/pkg/security"
)

type seedUser struct {
	username string
	password string
	email    string
	title    string
	role     enums.Role
	store    string
	status   enums.RecordStatus
}

type seedProduct struct {
	name     string
	category string
	price    string
	stock    int
	store    string
}

var seedStores = []models.Store{
	{Name: "Downtown Store", Address: "123 Main St, Downtown", Manager: "John Doe", Status: enums.StatusActive},
	{Name: "Mall Store", Address: "456 Mall Ave, Shopping Center", Manager: "Jane Smith", Status: enums.StatusActive},
}

var seedUsers = []seedUser{
	{username: "admin", password: "admin123", email: "admin@storepos.local", title: "Administrator", role: enums.RoleAdmin, status: enums.StatusActive},
	{username: "store1", password: "store123", email: "store1@storepos.local", title: "Cashier", role: enums.RoleStoreUser, store: "Downtown Store", status: enums.StatusActive},
	{username: "store2", password: "store123", email: "store2@storepos.local", title: "Cashier", role: enums.RoleStoreUser, store: "Mall Store", status: enums.StatusActive},
	{username: "john_doe", password: "store123", email: "john@storepos.local", title: "Cashier", role: enums.RoleStoreUser, store: "Downtown Store", status: enums.StatusInactive},
}

var seedProducts = []seedProduct{
	{name: "Laptop", category: "Electronics", price: "999.99", stock: 10, store: "Downtown Store"},
	{name: "Mouse", category: "Electronics", price: "29.99", stock: 50, store: "Downtown Store"},
	{name: "Keyboard", category: "Electronics", price: "79.99", stock: 25, store: "Mall Store"},
	{name: "Monitor", category: "Electronics", price: "299.99", stock: 15, store: "Downtown Store"},
	{name: "Espresso", category: "Beverages", price: "3.50", stock: 100, store: "Downtown Store"},
	{name: "Croissant", category: "Food", price: "2.80", stock: 40, store: "Downtown Store"},
	{name: "Latte", category: "Beverages", price: "4.25", stock: 80, store: "Mall Store"},
	{name: "Muffin", category: "Food", price: "3.10", stock: 6, store: "Mall Store"},
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "seed"})
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	if err := seed(ctx, logg, dbClient.DB(), security.NewHasher(cfg.Password)); err != nil {
		logg.Error(ctx, "seed failed", err)
		os.Exit(1)
	}
	logg.Info(ctx, "seed complete")
}

// seed inserts the demo data. Rows that already exist by name are left untouched.
func seed(ctx context.Context, logg *logger.Logger, conn *gorm.DB, hasher *security.Hasher) error {
	storeIDs, err := seedStoreRows(ctx, logg, stores.NewRepository(conn))
	if err != nil {
		return err
	}

	categoryService, err := categories.NewService(categories.NewRepository(conn))
	if err != nil {
		return err
	}
	if err := categoryService.SeedDefaults(ctx); err != nil {
		return err
	}

	if err := seedUserRows(ctx, logg, users.NewRepository(conn), hasher, storeIDs); err != nil {
		return err
	}
	return seedProductRows(ctx, logg, product.NewRepository(conn), storeIDs)
}

func seedStoreRows(ctx context.Context, logg *logger.Logger, repo *stores.Repository) (map[string]uuid.UUID, error) {
	existing, err := repo.List(ctx)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]uuid.UUID, len(existing))
	for _, row := range existing {
		ids[row.Name] = row.ID
	}
	for _, row := range seedStores {
		if _, ok := ids[row.Name]; ok {
			continue
		}
		store := row
		if err := repo.Create(ctx, &store); err != nil {
			return nil, err
		}
		ids[store.Name] = store.ID
		logg.Info(logg.WithField(ctx, "store", store.Name), "seeded store")
	}
	return ids, nil
}

func seedUserRows(ctx context.Context, logg *logger.Logger, repo *users.Repository, hasher *security.Hasher, storeIDs map[string]uuid.UUID) error {
	for _, row := range seedUsers {
		_, err := repo.FindByUsername(ctx, row.username)
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hash, err := hasher.Hash(row.password)
		if err != nil {
			return err
		}
		user := models.User{
			Username:     row.username,
			Email:        row.email,
			Title:        row.title,
			PasswordHash: hash,
			Role:         row.role,
			Status:       row.status,
		}
		if row.store != "" {
			id, ok := storeIDs[row.store]
			if !ok {
				return errors.New("unknown seed store " + row.store)
			}
			user.StoreID = &id
		}
		if err := repo.Create(ctx, &user); err != nil {
			return err
		}
		logg.Info(logg.WithField(ctx, "username", user.Username), "seeded user")
	}
	return nil
}

func seedProductRows(ctx context.Context, logg *logger.Logger, repo *product.Repository, storeIDs map[string]uuid.UUID) error {
	existing, err := repo.List(ctx, nil)
	if err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(existing))
	for _, row := range existing {
		seen[productKey(row.StoreID, row.Name)] = struct{}{}
	}

	for _, row := range seedProducts {
		storeID, ok := storeIDs[row.store]
		if !ok {
			return errors.New("unknown seed store " + row.store)
		}
		if _, ok := seen[productKey(storeID, row.name)]; ok {
			continue
		}
		item := models.Product{
			StoreID:  storeID,
			Name:     row.name,
			Category: row.category,
			Price:    decimal.RequireFromString(row.price),
			Stock:    row.stock,
		}
		if err := repo.Create(ctx, &item); err != nil {
			return err
		}
		logg.Info(logg.WithField(ctx, "product", item.Name), "seeded product")
	}
	return nil
}

func productKey(storeID uuid.UUID, name string) string {
	return storeID.String() + "|" + strings.ToLower(name)
}
