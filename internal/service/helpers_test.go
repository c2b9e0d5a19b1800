package service

import (
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/judyrop/shop-backend/internal/model"
)

var testDBSeq atomic.Int64

// newTestDB opens a fresh in-memory sqlite database. Each test gets its own
// named shared-cache DB so connections from gorm's pool see the same data.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.Category{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.Payment{},
		&model.EmailVerificationToken{},
		&model.PasswordResetToken{},
	))
	return db
}

// noopMailer sends nothing; SMTP with no host is a logged no-op.
func noopMailer() EmailService {
	return NewSMTPEmail(SMTPConfig{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func seedUser(t *testing.T, db *gorm.DB, username, role string) model.User {
	t.Helper()
	u := model.User{
		Username:      username,
		Email:         username + "@example.com",
		Password:      "x",
		Role:          role,
		EmailVerified: true,
	}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func seedProduct(t *testing.T, db *gorm.DB, name string, price float64, stock int) model.Product {
	t.Helper()
	p := model.Product{Name: name, Description: name + " description", Price: price, Stock: stock}
	require.NoError(t, db.Create(&p).Error)
	return p
}
