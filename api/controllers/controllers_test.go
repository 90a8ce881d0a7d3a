package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storepos-backend/api/middleware"
	"github.com/angelmondragon/storepos-backend/internal/catalog"
	"github.com/angelmondragon/storepos-backend/internal/checkout"
	"github.com/angelmondragon/storepos-backend/internal/invoices"
	product "github.com/angelmondragon/storepos-backend/internal/products"
	"github.com/angelmondragon/storepos-backend/internal/users"
	"github.com/angelmondragon/storepos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storepos-backend/pkg/errors"
)

type recordingProducts struct {
	product.Service
	created product.CreateProductInput
	listed  product.ListProductsInput
	viewer  catalog.Viewer
}

func (r *recordingProducts) Create(_ context.Context, viewer catalog.Viewer, input product.CreateProductInput) (*product.ProductDTO, error) {
	r.viewer = viewer
	r.created = input
	return &product.ProductDTO{Name: input.Name, Price: input.Price.StringFixed(2)}, nil
}

func (r *recordingProducts) List(_ context.Context, viewer catalog.Viewer, input product.ListProductsInput) ([]product.ProductDTO, error) {
	r.viewer = viewer
	r.listed = input
	return []product.ProductDTO{}, nil
}

type recordingCart struct {
	checkout.Service
	qty       int
	productID uuid.UUID
	finalize  *checkout.FinalizeInput
	err       error
}

func (r *recordingCart) UpdateQuantity(_ context.Context, _ catalog.Viewer, productID uuid.UUID, qty int) (*checkout.CartView, error) {
	r.productID = productID
	r.qty = qty
	return &checkout.CartView{}, nil
}

func (r *recordingCart) Finalize(_ context.Context, _ catalog.Viewer, input checkout.FinalizeInput) (*invoices.InvoiceDTO, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.finalize = &input
	return &invoices.InvoiceDTO{ID: "INV-20240115-001"}, nil
}

type recordingUsers struct {
	users.Service
	actor, target uuid.UUID
}

func (r *recordingUsers) Delete(_ context.Context, actorID, id uuid.UUID) error {
	r.actor, r.target = actorID, id
	return nil
}

func withViewer(req *http.Request, viewer catalog.Viewer) *http.Request {
	return req.WithContext(middleware.WithViewer(req.Context(), viewer))
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rc := chi.RouteContext(req.Context())
	if rc == nil {
		rc = chi.NewRouteContext()
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
	}
	rc.URLParams.Add(key, value)
	return req
}

func storeUser() catalog.Viewer {
	storeID := uuid.New()
	return catalog.Viewer{UserID: uuid.New(), Username: "store1", Role: enums.RoleStoreUser, StoreID: &storeID, StoreName: "Downtown Store"}
}

func TestProductCreateDecodesDecimalPrice(t *testing.T) {
	svc := &recordingProducts{}
	viewer := storeUser()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(`{"name":"Espresso","category":"Beverages","price":"3.50","stock":20}`))
	req = withViewer(req, viewer)
	resp := httptest.NewRecorder()
	ProductCreate(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d (%s)", resp.Code, resp.Body.String())
	}
	if !svc.created.Price.Equal(decimal.RequireFromString("3.50")) {
		t.Fatalf("unexpected price %s", svc.created.Price)
	}
	if svc.viewer.UserID != viewer.UserID || svc.viewer.StoreName != "Downtown Store" {
		t.Fatalf("viewer not forwarded: %+v", svc.viewer)
	}
}

func TestProductCreateRejectsNegativeStock(t *testing.T) {
	svc := &recordingProducts{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(`{"name":"Espresso","category":"Beverages","price":3.5,"stock":-1}`))
	req = withViewer(req, storeUser())
	resp := httptest.NewRecorder()
	ProductCreate(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"stock"`) {
		t.Fatalf("expected stock detail, got %s", resp.Body.String())
	}
}

func TestProductListForwardsFilters(t *testing.T) {
	svc := &recordingProducts{}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?search=+lap+&store=all", nil)
	req = withViewer(req, catalog.Viewer{UserID: uuid.New(), Role: enums.RoleAdmin})
	resp := httptest.NewRecorder()
	ProductList(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.listed.Search != " lap " || svc.listed.SelectedStore != "all" {
		t.Fatalf("unexpected filters %+v", svc.listed)
	}
}

func TestControllersRequireViewer(t *testing.T) {
	resp := httptest.NewRecorder()
	ProductList(&recordingProducts{}, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCartUpdateItemParsesPathAndQuantity(t *testing.T) {
	svc := &recordingCart{}
	productID := uuid.New()

	req := httptest.NewRequest(http.MethodPut, "/api/v1/cart/items/"+productID.String(), strings.NewReader(`{"quantity":0}`))
	req = withURLParam(withViewer(req, storeUser()), "productId", productID.String())
	resp := httptest.NewRecorder()
	CartUpdateItem(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", resp.Code, resp.Body.String())
	}
	if svc.productID != productID || svc.qty != 0 {
		t.Fatalf("unexpected call %s x%d", svc.productID, svc.qty)
	}
}

func TestCartUpdateItemRejectsBadID(t *testing.T) {
	req := httptest.NewRequest(http.MethodPut, "/api/v1/cart/items/nope", strings.NewReader(`{"quantity":2}`))
	req = withURLParam(withViewer(req, storeUser()), "productId", "nope")
	resp := httptest.NewRecorder()
	CartUpdateItem(&recordingCart{}, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCheckoutAcceptsEmptyBody(t *testing.T) {
	svc := &recordingCart{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
	req = withViewer(req, storeUser())
	resp := httptest.NewRecorder()
	Checkout(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d (%s)", resp.Code, resp.Body.String())
	}
	if svc.finalize == nil || svc.finalize.CustomerName != "" {
		t.Fatalf("unexpected finalize input %+v", svc.finalize)
	}
}

func TestCheckoutSurfacesEmptyCart(t *testing.T) {
	svc := &recordingCart{err: pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{"customer_name":"  Ana  "}`))
	req = withViewer(req, storeUser())
	resp := httptest.NewRecorder()
	Checkout(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Message != "cart is empty" {
		t.Fatalf("unexpected message %q", body.Error.Message)
	}
}

func TestUserDeletePassesActor(t *testing.T) {
	svc := &recordingUsers{}
	admin := catalog.Viewer{UserID: uuid.New(), Role: enums.RoleAdmin}
	target := uuid.New()

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/users/"+target.String(), nil)
	req = withURLParam(withViewer(req, admin), "userId", target.String())
	resp := httptest.NewRecorder()
	UserDelete(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", resp.Code)
	}
	if svc.actor != admin.UserID || svc.target != target {
		t.Fatalf("unexpected delete call actor=%s target=%s", svc.actor, svc.target)
	}
}
