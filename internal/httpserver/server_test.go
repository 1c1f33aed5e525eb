package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mkravets/storefront/internal/locks"
	authmw "github.com/mkravets/storefront/internal/middleware/auth"
	"github.com/mkravets/storefront/internal/models"
	"github.com/mkravets/storefront/internal/payment"
	"github.com/mkravets/storefront/internal/repo"
	"github.com/mkravets/storefront/internal/service/cart"
	"github.com/mkravets/storefront/internal/service/catalog"
	"github.com/mkravets/storefront/internal/service/order"
	"github.com/mkravets/storefront/internal/transport"
)

var testSecret = []byte("test-jwt-secret")

type fakeGateway struct{}

func (fakeGateway) Capture(context.Context, payment.CaptureRequest) (*payment.CaptureResult, error) {
	return &payment.CaptureResult{TransactionID: "txn-test", Status: "succeeded"}, nil
}

type testEnv struct {
	e  *echo.Echo
	db *gorm.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, repo.Migrate(db))

	r := repo.New(db)
	keyed := locks.NewKeyed()
	catalogSvc := catalog.New(r)
	cartSvc := cart.New(r, keyed)
	orderSvc := order.New(r, fakeGateway{}, keyed)

	e := echo.New()
	Register(e, &Deps{
		Products:   &ProductHTTP{Svc: catalogSvc},
		Categories: &CategoryHTTP{Svc: catalogSvc},
		Cart:       &CartHTTP{Svc: cartSvc},
		Orders:     &OrderHTTP{Svc: orderSvc},
		JWTSecret:  testSecret,
	})

	return &testEnv{e: e, db: db}
}

func (env *testEnv) token(t *testing.T, userID uint, role string) string {
	t.Helper()

	claims := authmw.Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(userID),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)
	return token
}

func (env *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) transport.Envelope {
	t.Helper()

	var env transport.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func (env *testEnv) seedProduct(t *testing.T, name string, price float64, stock uint) *models.Product {
	t.Helper()

	p := models.Product{Name: name, Description: "d", Price: price, Stock: stock}
	require.NoError(t, env.db.Create(&p).Error)
	return &p
}

func TestCartRoutes(t *testing.T) {
	env := newTestEnv(t)
	p := env.seedProduct(t, "shirt", 10, 3)
	token := env.token(t, 1, "user")

	rec := env.do(t, http.MethodGet, "/api/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/cart", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.True(t, body.Success)

	rec = env.do(t, http.MethodPost, "/api/cart", token, transport.AddItemRequest{ProductID: p.ID, Quantity: 2})
	require.Equal(t, http.StatusCreated, rec.Code)

	var view struct {
		Success bool               `json:"success"`
		Data    transport.CartView `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Len(t, view.Data.Lines, 1)
	assert.Equal(t, "shirt", view.Data.Lines[0].Name)
	assert.Equal(t, 20.0, view.Data.Total)
	lineID := view.Data.Lines[0].LineID

	// Over stock maps to 409 with the failure envelope.
	rec = env.do(t, http.MethodPost, "/api/cart", token, transport.AddItemRequest{ProductID: p.ID, Quantity: 5})
	assert.Equal(t, http.StatusConflict, rec.Code)
	body = decodeEnvelope(t, rec)
	assert.False(t, body.Success)
	assert.Contains(t, body.Message, "shirt")

	rec = env.do(t, http.MethodPut, fmt.Sprintf("/api/cart/%d", lineID), token, transport.UpdateLineRequest{Quantity: 3})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodDelete, fmt.Sprintf("/api/cart/%d", lineID), token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodDelete, fmt.Sprintf("/api/cart/%d", lineID), token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/cart", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOrderRoutes(t *testing.T) {
	env := newTestEnv(t)
	p := env.seedProduct(t, "shirt", 10, 5)
	user := env.token(t, 1, "user")
	admin := env.token(t, 9, "admin")

	// Empty cart is a 400.
	rec := env.do(t, http.MethodPost, "/api/orders", user, transport.CreateOrderRequest{Amount: 10})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/cart", user, transport.AddItemRequest{ProductID: p.ID, Quantity: 2})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/orders", user, transport.CreateOrderRequest{
		ShippingAddress: models.ShippingAddress{FirstName: "Mira", City: "Riga", Country: "LV"},
		CardToken:       "tok_test",
		CardLast4:       "4242",
		CardType:        "visa",
		Amount:          20,
		Currency:        "eur",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		Data models.Order `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.Data.OrderID)
	assert.Equal(t, 20.0, created.Data.TotalAmount)

	rec = env.do(t, http.MethodGet, "/api/orders/user", user, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/orders/"+created.Data.OrderID, user, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Another user cannot read it.
	rec = env.do(t, http.MethodGet, "/api/orders/"+created.Data.OrderID, env.token(t, 2, "user"), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Admin-only surface.
	rec = env.do(t, http.MethodGet, "/api/orders", user, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/orders", admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	statusPath := "/api/orders/" + created.Data.OrderID + "/status"
	rec = env.do(t, http.MethodPut, statusPath, user, transport.SetStatusRequest{Status: "preparing"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPut, statusPath, admin, transport.SetStatusRequest{Status: "preparing"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPut, statusPath, admin, transport.SetStatusRequest{Status: "delivered"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestProductRoutes(t *testing.T) {
	env := newTestEnv(t)
	admin := env.token(t, 9, "admin")
	user := env.token(t, 1, "user")

	rec := env.do(t, http.MethodPost, "/api/products", user, transport.CreateProductRequest{Name: "shirt", Price: 10})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/products", "", transport.CreateProductRequest{Name: "shirt", Price: 10})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/products", admin, transport.CreateProductRequest{Name: "shirt", Price: 10, Stock: 5})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		Data models.Product `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/products/%d", created.Data.ID), "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Updates are reachable via PUT and PATCH alike.
	rec = env.do(t, http.MethodPut, fmt.Sprintf("/api/products/%d", created.Data.ID), admin, map[string]any{"price": 12.5})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated struct {
		Data models.Product `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, 12.5, updated.Data.Price)

	rec = env.do(t, http.MethodPatch, fmt.Sprintf("/api/products/%d", created.Data.ID), admin, map[string]any{"stock": 7})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/products/999", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/products", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Search is 503 when no index is configured.
	rec = env.do(t, http.MethodGet, "/api/products/search?q=shirt", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCategoryRoutes(t *testing.T) {
	env := newTestEnv(t)
	admin := env.token(t, 9, "admin")

	rec := env.do(t, http.MethodPost, "/api/categories", admin, transport.CreateCategoryRequest{Name: "Clothing"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		Data models.Category `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "clothing", created.Data.Slug)

	rec = env.do(t, http.MethodPost, "/api/categories", admin, transport.CreateCategoryRequest{Name: "Clothing"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/categories", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/categories/%d", created.Data.ID), "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPut, fmt.Sprintf("/api/categories/%d", created.Data.ID), admin, map[string]any{"name": "Menswear"})
	require.Equal(t, http.StatusOK, rec.Code)
	var renamed struct {
		Data models.Category `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &renamed))
	assert.Equal(t, "menswear", renamed.Data.Slug)

	rec = env.do(t, http.MethodDelete, fmt.Sprintf("/api/categories/%d", created.Data.ID), admin, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
