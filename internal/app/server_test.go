package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/judyrop/shop-backend/internal/model"
	"github.com/judyrop/shop-backend/internal/service"
	"github.com/judyrop/shop-backend/internal/store"
)

var testDBSeq atomic.Int64

func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:app%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := Config{
		Env:              "test",
		AccessSecret:     "test-access-secret",
		RefreshSecret:    "test-refresh-secret",
		RateLimitWindow:  time.Minute,
		RateLimitGeneral: 1000,
		RateLimitLogin:   1000,
		RateLimitEmail:   1000,
	}
	kv := store.NewMemory()
	t.Cleanup(func() { kv.Close() })
	mailer := service.NewSMTPEmail(service.SMTPConfig{}, log)

	return NewRouter(db, cfg, kv, mailer, log), db
}

func do(r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// registerAndLogin drives the real registration flow, pulling the verification
// token out of the database in place of reading the mail.
func registerAndLogin(t *testing.T, r *gin.Engine, db *gorm.DB, username, role string) (string, uint) {
	t.Helper()
	email := username + "@example.com"

	w := do(r, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": username, "email": email, "password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var user model.User
	require.NoError(t, db.Where("email = ?", email).First(&user).Error)
	if role != model.RoleCustomer {
		require.NoError(t, db.Model(&user).Update("role", role).Error)
	}

	var rec model.EmailVerificationToken
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&rec).Error)
	w = do(r, http.MethodGet, "/api/email/verify?token="+rec.Token, "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": email, "password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token, user.ID
}

func TestHealthEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)
	w := do(r, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": "ok"}`, w.Body.String())
}

func TestAuthRequiredAndRoleChecks(t *testing.T) {
	r, db := newTestRouter(t)

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/api/cart", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/api/cart", "garbage-token", nil).Code)

	customer, _ := registerAndLogin(t, r, db, "carl", model.RoleCustomer)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/api/metrics/overview", customer, nil).Code)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodPost, "/api/products", customer, gin.H{
		"name": "Nope", "price": 1, "stock": 1,
	}).Code)
}

func TestLoginBeforeVerificationIsRejected(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(r, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "eve", "email": "eve@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "eve@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "EMAIL_NOT_VERIFIED")
}

func TestPurchaseFlow(t *testing.T) {
	r, db := newTestRouter(t)
	admin, _ := registerAndLogin(t, r, db, "admin", model.RoleAdmin)
	customer, _ := registerAndLogin(t, r, db, "alice", model.RoleCustomer)

	// Empty reads 404 before anything exists.
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/orders/my-orders", customer, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/payments/my-payments", customer, nil).Code)

	w := do(r, http.MethodPost, "/api/products", admin, gin.H{
		"name": "Widget", "description": "A widget", "price": 10.0, "stock": 5,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created model.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	productID := created.ID
	require.NotZero(t, productID)

	// Cart: 3 fit, 3 more do not, 2 more exactly exhaust the stock.
	w = do(r, http.MethodPost, "/api/cart/add", customer, gin.H{"productId": productID, "quantity": 3})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = do(r, http.MethodPost, "/api/cart/add", customer, gin.H{"productId": productID, "quantity": 3})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(r, http.MethodPost, "/api/cart/add", customer, gin.H{"productId": productID, "quantity": 2})
	require.Equal(t, http.StatusCreated, w.Code)

	var cart struct {
		Summary struct {
			ItemCount     int     `json:"itemCount"`
			TotalQuantity int     `json:"totalQuantity"`
			TotalAmount   float64 `json:"totalAmount"`
		} `json:"summary"`
	}
	w = do(r, http.MethodGet, "/api/cart/summary", customer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cart))
	assert.Equal(t, 1, cart.Summary.ItemCount)
	assert.Equal(t, 5, cart.Summary.TotalQuantity)
	assert.InDelta(t, 50.0, cart.Summary.TotalAmount, 0.001)

	// Place the order and pay for it.
	w = do(r, http.MethodPost, "/api/orders", customer, gin.H{
		"items": []gin.H{{"product_id": productID, "quantity": 5}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var placed struct {
		Order model.Order `json:"order"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &placed))
	assert.InDelta(t, 50.0, placed.Order.TotalPrice, 0.001)
	assert.Equal(t, model.OrderPending, placed.Order.Status)

	// Stock is untouched by order placement.
	var product model.Product
	require.NoError(t, db.First(&product, productID).Error)
	assert.Equal(t, 5, product.Stock)

	w = do(r, http.MethodPost, "/api/payments", customer, gin.H{
		"orderId": placed.Order.ID, "paymentMethod": "credit_card",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var paid struct {
		Payment model.Payment `json:"payment"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &paid))
	assert.Nil(t, paid.Payment.PaidAt)

	// The order can only be paid once.
	w = do(r, http.MethodPost, "/api/payments", customer, gin.H{
		"orderId": placed.Order.ID, "paymentMethod": "paypal",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPut, fmt.Sprintf("/api/payments/%d/status", paid.Payment.ID), customer, gin.H{
		"status": "completed",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &paid))
	assert.Equal(t, model.PaymentCompleted, paid.Payment.Status)
	assert.NotNil(t, paid.Payment.PaidAt)

	// Another customer cannot see the order; the admin can.
	other, _ := registerAndLogin(t, r, db, "mallory", model.RoleCustomer)
	orderPath := fmt.Sprintf("/api/orders/%d", placed.Order.ID)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, orderPath, other, nil).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, orderPath, admin, nil).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, orderPath, customer, nil).Code)

	// Admin ships it and reads the dashboards.
	w = do(r, http.MethodPut, fmt.Sprintf("/api/orders/%d/status", placed.Order.ID), admin, gin.H{
		"status": "shipped",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/api/metrics/overview", admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var overview service.MetricsOverview
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &overview))
	assert.Equal(t, int64(1), overview.Orders.TotalOrders)
	assert.InDelta(t, 50.0, overview.Orders.TotalRevenue, 0.001)
}

func TestCartItemLifecycleOverHTTP(t *testing.T) {
	r, db := newTestRouter(t)
	admin, _ := registerAndLogin(t, r, db, "admin", model.RoleAdmin)
	customer, _ := registerAndLogin(t, r, db, "bob", model.RoleCustomer)

	w := do(r, http.MethodPost, "/api/products", admin, gin.H{"name": "Mug", "price": 4.5, "stock": 10})
	require.Equal(t, http.StatusCreated, w.Code)
	var created model.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	// Quantity defaults to 1 when omitted.
	w = do(r, http.MethodPost, "/api/cart/add", customer, gin.H{"productId": created.ID})
	require.Equal(t, http.StatusCreated, w.Code)
	var added struct {
		CartItem model.CartItem `json:"cartItem"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &added))
	assert.Equal(t, 1, added.CartItem.Quantity)

	itemPath := fmt.Sprintf("/api/cart/%d", added.CartItem.ID)
	w = do(r, http.MethodPatch, itemPath, customer, gin.H{"quantity": 4})
	require.Equal(t, http.StatusOK, w.Code)

	// Zero quantity removes the row.
	w = do(r, http.MethodPatch, itemPath, customer, gin.H{"quantity": 0})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Item removed from cart")

	var count int64
	db.Model(&model.CartItem{}).Count(&count)
	assert.Equal(t, int64(0), count)

	// Updating the now-missing item is a 404.
	w = do(r, http.MethodPatch, itemPath, customer, gin.H{"quantity": 2})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
