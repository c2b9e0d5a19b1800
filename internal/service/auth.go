package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/judyrop/shop-backend/internal/model"
)

const (
	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 7 * 24 * time.Hour
	verifyTokenTTL  = 24 * time.Hour
	resetTokenTTL   = time.Hour
)

// Claims is what the access token carries; the auth middleware puts it on the
// request context.
type Claims struct {
	UserID   uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// TokenPair is minted at login.
type TokenPair struct {
	Access  string
	Refresh string
}

type AuthService interface {
	Register(ctx context.Context, username, email, password string) (model.User, bool, error)
	Login(ctx context.Context, email, password string) (model.User, TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (model.User, string, error)
	ParseAccessToken(token string) (Claims, error)

	SendVerification(ctx context.Context, userID uint) (time.Time, error)
	VerifyEmail(ctx context.Context, token string) (model.User, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ValidateResetToken(ctx context.Context, token string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	CleanupExpiredTokens(ctx context.Context) (int64, error)
}

type authService struct {
	db            *gorm.DB
	mailer        EmailService
	accessSecret  []byte
	refreshSecret []byte
}

func NewAuthService(db *gorm.DB, mailer EmailService, accessSecret, refreshSecret []byte) AuthService {
	return &authService{
		db:            db,
		mailer:        mailer,
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
	}
}

// Register creates a customer account and sends the verification mail. The
// second return reports whether the mail went out; registration succeeds
// either way.
func (a *authService) Register(ctx context.Context, username, email, password string) (model.User, bool, error) {
	if username == "" || email == "" || password == "" {
		return model.User{}, false, fmt.Errorf("%w: username, email and password are required", ErrInvalidInput)
	}

	var existing model.User
	err := a.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		return model.User{}, false, ErrEmailTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return model.User{}, false, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return model.User{}, false, err
	}
	user := model.User{
		Username: username,
		Email:    email,
		Password: string(hash),
		Role:     model.RoleCustomer,
	}
	if err := a.db.WithContext(ctx).Create(&user).Error; err != nil {
		return model.User{}, false, err
	}

	emailSent := true
	if _, err := a.SendVerification(ctx, user.ID); err != nil {
		emailSent = false
	}
	return user, emailSent, nil
}

func (a *authService) Login(ctx context.Context, email, password string) (model.User, TokenPair, error) {
	var user model.User
	err := a.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.User{}, TokenPair{}, ErrInvalidCredentials
	}
	if err != nil {
		return model.User{}, TokenPair{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return model.User{}, TokenPair{}, ErrInvalidCredentials
	}
	if !user.EmailVerified {
		return model.User{}, TokenPair{}, ErrEmailNotVerified
	}

	access, err := a.mintAccessToken(user)
	if err != nil {
		return model.User{}, TokenPair{}, err
	}
	refresh, err := a.mintRefreshToken(user.ID)
	if err != nil {
		return model.User{}, TokenPair{}, err
	}
	return user, TokenPair{Access: access, Refresh: refresh}, nil
}

func (a *authService) Refresh(ctx context.Context, refreshToken string) (model.User, string, error) {
	claims := jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(refreshToken, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.refreshSecret, nil
	})
	if err != nil {
		return model.User{}, "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	var user model.User
	if err := a.db.WithContext(ctx).Where("id = ?", claims.Subject).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.User{}, "", fmt.Errorf("%w: user gone", ErrNotFound)
		}
		return model.User{}, "", err
	}
	access, err := a.mintAccessToken(user)
	if err != nil {
		return model.User{}, "", err
	}
	return user, access, nil
}

func (a *authService) ParseAccessToken(token string) (Claims, error) {
	claims := Claims{}
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.accessSecret, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

func (a *authService) mintAccessToken(user model.User) (string, error) {
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(AccessTokenTTL)),
		},
	})
	return t.SignedString(a.accessSecret)
}

func (a *authService) mintRefreshToken(userID uint) (string, error) {
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   fmt.Sprint(userID),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(RefreshTokenTTL)),
	})
	return t.SignedString(a.refreshSecret)
}

// SendVerification replaces any outstanding verification tokens for the user
// with a fresh 24h one and mails the link.
func (a *authService) SendVerification(ctx context.Context, userID uint) (time.Time, error) {
	var user model.User
	if err := a.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return time.Time{}, fmt.Errorf("%w: user %d", ErrNotFound, userID)
		}
		return time.Time{}, err
	}
	if user.EmailVerified {
		return time.Time{}, fmt.Errorf("%w: email already verified", ErrInvalidInput)
	}

	token := randomToken()
	expiresAt := time.Now().Add(verifyTokenTTL)
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&model.EmailVerificationToken{}).Error; err != nil {
			return err
		}
		return tx.Create(&model.EmailVerificationToken{
			UserID:    userID,
			Token:     token,
			ExpiresAt: expiresAt,
		}).Error
	})
	if err != nil {
		return time.Time{}, err
	}
	if err := a.mailer.SendVerification(user.Email, user.Username, token); err != nil {
		return time.Time{}, err
	}
	return expiresAt, nil
}

func (a *authService) VerifyEmail(ctx context.Context, token string) (model.User, error) {
	if token == "" {
		return model.User{}, fmt.Errorf("%w: token is required", ErrInvalidInput)
	}

	var user model.User
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec model.EmailVerificationToken
		err := tx.Where("token = ? AND used_at IS NULL AND expires_at > ?", token, time.Now()).
			First(&rec).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidToken
		}
		if err != nil {
			return err
		}
		if err := tx.First(&user, rec.UserID).Error; err != nil {
			return err
		}
		if user.EmailVerified {
			return fmt.Errorf("%w: email already verified", ErrInvalidInput)
		}

		now := time.Now()
		if err := tx.Model(&user).Updates(map[string]any{
			"email_verified":    true,
			"email_verified_at": now,
		}).Error; err != nil {
			return err
		}
		user.EmailVerified = true
		user.EmailVerifiedAt = &now
		return tx.Model(&rec).Update("used_at", now).Error
	})
	if err != nil {
		return model.User{}, err
	}

	_ = a.mailer.SendWelcome(user.Email, user.Username)
	return user, nil
}

// RequestPasswordReset never reveals whether the address is registered.
func (a *authService) RequestPasswordReset(ctx context.Context, email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	var user model.User
	err := a.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	token := randomToken()
	expiresAt := time.Now().Add(resetTokenTTL)
	err = a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", user.ID).Delete(&model.PasswordResetToken{}).Error; err != nil {
			return err
		}
		return tx.Create(&model.PasswordResetToken{
			UserID:    user.ID,
			Token:     token,
			ExpiresAt: expiresAt,
		}).Error
	})
	if err != nil {
		return err
	}
	return a.mailer.SendPasswordReset(user.Email, user.Username, token)
}

func (a *authService) ValidateResetToken(ctx context.Context, token string) error {
	var rec model.PasswordResetToken
	err := a.db.WithContext(ctx).
		Where("token = ? AND used_at IS NULL AND expires_at > ?", token, time.Now()).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrInvalidToken
	}
	return err
}

func (a *authService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" || newPassword == "" {
		return fmt.Errorf("%w: token and new password are required", ErrInvalidInput)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec model.PasswordResetToken
		err := tx.Where("token = ? AND used_at IS NULL AND expires_at > ?", token, time.Now()).
			First(&rec).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidToken
		}
		if err != nil {
			return err
		}
		if err := tx.Model(&model.User{}).Where("id = ?", rec.UserID).
			Update("password", string(hash)).Error; err != nil {
			return err
		}
		return tx.Model(&rec).Update("used_at", time.Now()).Error
	})
}

// CleanupExpiredTokens drops expired or used verification and reset tokens.
// Called by the admin endpoint and by the hourly sweep.
func (a *authService) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	now := time.Now()
	var removed int64
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("expires_at <= ? OR used_at IS NOT NULL", now).
			Delete(&model.EmailVerificationToken{})
		if res.Error != nil {
			return res.Error
		}
		removed += res.RowsAffected
		res = tx.Where("expires_at <= ? OR used_at IS NOT NULL", now).
			Delete(&model.PasswordResetToken{})
		if res.Error != nil {
			return res.Error
		}
		removed += res.RowsAffected
		return nil
	})
	return removed, err
}

func randomToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err) // crypto/rand failing means the process cannot run safely
	}
	return hex.EncodeToString(b)
}
