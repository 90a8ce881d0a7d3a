package product

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storepos-backend/internal/catalog"
	"github.com/angelmondragon/storepos-backend/internal/categories"
	"github.com/angelmondragon/storepos-backend/internal/stores"
	"github.com/angelmondragon/storepos-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storepos-backend/pkg/db/models"
	"github.com/angelmondragon/storepos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storepos-backend/pkg/errors"
)

type fixture struct {
	svc      Service
	repo     *Repository
	downtown models.Store
	mall     models.Store
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := dbtest.Open(t)
	ctx := context.Background()

	downtown := models.Store{Name: "Downtown Store", Status: enums.StatusActive}
	mall := models.Store{Name: "Mall Store", Status: enums.StatusActive}
	require.NoError(t, conn.Create(&downtown).Error)
	require.NoError(t, conn.Create(&mall).Error)

	cats, err := categories.NewService(categories.NewRepository(conn))
	require.NoError(t, err)
	require.NoError(t, cats.SeedDefaults(ctx))

	repo := NewRepository(conn)
	svc, err := NewService(repo, stores.NewRepository(conn), cats, 0)
	require.NoError(t, err)
	return fixture{svc: svc, repo: repo, downtown: downtown, mall: mall}
}

func adminViewer() catalog.Viewer {
	return catalog.Viewer{UserID: uuid.New(), Username: "admin", Role: enums.RoleAdmin}
}

func storeViewer(store models.Store) catalog.Viewer {
	id := store.ID
	return catalog.Viewer{UserID: uuid.New(), Username: "store1", Role: enums.RoleStoreUser, StoreID: &id, StoreName: store.Name}
}

func (f fixture) seed(t *testing.T) {
	t.Helper()
	admin := adminViewer()
	for _, in := range []CreateProductInput{
		{Name: "Laptop", Category: "Electronics", Price: decimal.RequireFromString("999.99"), Stock: 10, StoreID: &f.downtown.ID},
		{Name: "Mouse", Category: "Electronics", Price: decimal.RequireFromString("29.99"), Stock: 50, StoreID: &f.downtown.ID},
		{Name: "Keyboard", Category: "Electronics", Price: decimal.RequireFromString("79.99"), Stock: 25, StoreID: &f.mall.ID},
		{Name: "Monitor", Category: "Electronics", Price: decimal.RequireFromString("299.99"), Stock: 5, StoreID: &f.downtown.ID},
	} {
		_, err := f.svc.Create(context.Background(), admin, in)
		require.NoError(t, err)
	}
}

func listNames(items []ProductDTO) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Name)
	}
	return out
}

func TestListAppliesRoleStoreAndSearch(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	ctx := context.Background()

	all, err := f.svc.List(ctx, adminViewer(), ListProductsInput{SelectedStore: catalog.AllStores})
	require.NoError(t, err)
	require.Equal(t, []string{"Keyboard", "Laptop", "Monitor", "Mouse"}, listNames(all))

	mallOnly, err := f.svc.List(ctx, adminViewer(), ListProductsInput{SelectedStore: f.mall.ID.String()})
	require.NoError(t, err)
	require.Equal(t, []string{"Keyboard"}, listNames(mallOnly))
	require.Equal(t, "Mall Store", mallOnly[0].StoreName)

	scoped, err := f.svc.List(ctx, storeViewer(f.downtown), ListProductsInput{Search: "MO", SelectedStore: f.mall.ID.String()})
	require.NoError(t, err)
	require.Equal(t, []string{"Monitor", "Mouse"}, listNames(scoped))

	_, err = f.svc.List(ctx, adminViewer(), ListProductsInput{SelectedStore: "downtown"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestCreateAggregatesValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), adminViewer(), CreateProductInput{
		Price: decimal.Zero,
		Stock: -1,
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details := typed.Details().(map[string]string)
	for _, field := range []string{"name", "price", "stock", "category", "store_id"} {
		require.Contains(t, details, field)
	}

	_, err = f.svc.Create(context.Background(), adminViewer(), CreateProductInput{
		Name: "Widget", Category: "Widgets", Price: decimal.NewFromInt(1), StoreID: &f.mall.ID,
	})
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Contains(t, typed.Details().(map[string]string), "category")
}

func TestStoreUserCreatesInOwnStoreOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	viewer := storeViewer(f.downtown)

	created, err := f.svc.Create(ctx, viewer, CreateProductInput{
		Name: "Headphones", Category: "Audio & Video", Price: decimal.RequireFromString("59.90"), Stock: 8,
	})
	require.NoError(t, err)
	require.Equal(t, f.downtown.ID, created.StoreID)
	require.Equal(t, "Downtown Store", created.StoreName)
	require.Equal(t, "59.90", created.Price)

	_, err = f.svc.Create(ctx, viewer, CreateProductInput{
		Name: "Speaker", Category: "Audio & Video", Price: decimal.NewFromInt(20), StoreID: &f.mall.ID,
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestUpdateAndDeleteRespectScope(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.Create(ctx, adminViewer(), CreateProductInput{
		Name: "Keyboard", Category: "Electronics", Price: decimal.RequireFromString("79.99"), Stock: 25, StoreID: &f.mall.ID,
	})
	require.NoError(t, err)

	outsider := storeViewer(f.downtown)
	stock := 3
	_, err = f.svc.Update(ctx, outsider, created.ID, UpdateProductInput{Stock: &stock})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	require.True(t, pkgerrors.IsCode(f.svc.Delete(ctx, outsider, created.ID), pkgerrors.CodeNotFound))

	owner := storeViewer(f.mall)
	updated, err := f.svc.Update(ctx, owner, created.ID, UpdateProductInput{Stock: &stock})
	require.NoError(t, err)
	require.Equal(t, 3, updated.Stock)

	_, err = f.svc.Update(ctx, owner, created.ID, UpdateProductInput{StoreID: &f.downtown.ID})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	require.NoError(t, f.svc.Delete(ctx, owner, created.ID))
	require.NoError(t, f.svc.Delete(ctx, owner, created.ID))
}

func TestLowStock(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	ctx := context.Background()

	low, err := f.svc.LowStock(ctx, adminViewer())
	require.NoError(t, err)
	require.Equal(t, []string{"Monitor"}, listNames(low))

	low, err = f.svc.LowStock(ctx, storeViewer(f.mall))
	require.NoError(t, err)
	require.Empty(t, low)
}

func TestDecrementStockGuard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.Create(ctx, adminViewer(), CreateProductInput{
		Name: "Mouse", Category: "Electronics", Price: decimal.RequireFromString("29.99"), Stock: 2, StoreID: &f.downtown.ID,
	})
	require.NoError(t, err)

	ok, err := f.repo.DecrementStock(ctx, created.ID, 2)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = f.repo.DecrementStock(ctx, created.ID, 1)
	require.NoError(t, err)
	require.False(t, ok)

	row, err := f.repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, 0, row.Stock)
}
