package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "financially/internal/errors"
	"financially/internal/logger"
	"financially/internal/models"
	"financially/internal/notify"
	"financially/internal/session"
)

const (
	minPasswordLength  = 6
	verificationExpiry = 24 * time.Hour
	resetExpiry        = time.Hour
)

// authService handles registration, login and password flows.
type authService struct {
	db          *gorm.DB
	notifier    notify.Notifier
	sessions    session.Store
	frontendURL string
	now         func() time.Time
}

// NewAuthService creates a new AuthServicer. Links in outgoing emails point at frontendURL.
func NewAuthService(db *gorm.DB, notifier notify.Notifier, sessions session.Store, frontendURL string) AuthServicer {
	return &authService{
		db:          db,
		notifier:    notifier,
		sessions:    sessions,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		now:         time.Now,
	}
}

// newToken returns a random one-time token and the hash that is stored for it.
func newToken() (string, string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	token := hex.EncodeToString(buf)
	return token, hashToken(token), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) link(path, token string) string {
	return fmt.Sprintf("%s/%s/%s", s.frontendURL, path, token)
}

// Signup stores a pending registration and emails its verification link.
func (s *authService) Signup(ctx context.Context, fullName, email, password string) (*SignupResult, error) {
	email = normalizeEmail(email)
	fullName = strings.TrimSpace(fullName)
	if fullName == "" || email == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "full name and email are required")
	}
	if len(password) < minPasswordLength {
		return nil, apperrors.ErrPasswordTooShort
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateEmail
	}
	if err := s.db.Model(&models.PendingRegistration{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.WithMessage(apperrors.ErrDuplicateEmail, "A registration for this email is awaiting verification")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	token, tokenHash, err := newToken()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	pending := &models.PendingRegistration{
		FullName:              fullName,
		Email:                 email,
		PasswordHash:          string(hashedPassword),
		VerificationTokenHash: tokenHash,
		VerificationExpiry:    s.now().UTC().Add(verificationExpiry),
	}
	if err := s.db.Create(pending).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	url := s.link("verify-email", token)
	if err := s.sendVerification(ctx, pending, url); err != nil {
		if delErr := s.db.Unscoped().Delete(pending).Error; delErr != nil {
			logger.FromContext(ctx).Errorw("failed to remove pending registration", "email", email, "error", delErr)
		}
		return nil, apperrors.Wrap(apperrors.ErrEmailDeliveryFailed, err)
	}

	return &SignupResult{Email: email, VerificationURL: url}, nil
}

func (s *authService) sendVerification(ctx context.Context, pending *models.PendingRegistration, url string) error {
	return s.notifier.Send(ctx, notify.Email{
		Kind:    notify.KindVerifyEmail,
		To:      pending.Email,
		Name:    pending.FullName,
		Subject: "Verify your email",
		Link:    url,
	})
}

// VerifyEmail turns a pending registration into a user.
func (s *authService) VerifyEmail(ctx context.Context, token string) (*models.User, error) {
	var pending models.PendingRegistration
	err := s.db.Where("verification_token_hash = ?", hashToken(token)).First(&pending).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidToken
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if !s.now().Before(pending.VerificationExpiry) {
		return nil, apperrors.ErrInvalidToken
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", pending.Email).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		if err := s.db.Unscoped().Delete(&pending).Error; err != nil {
			logger.FromContext(ctx).Errorw("failed to remove pending registration", "email", pending.Email, "error", err)
		}
		return nil, apperrors.ErrDuplicateEmail
	}

	user := &models.User{
		FullName:     pending.FullName,
		Email:        pending.Email,
		PasswordHash: pending.PasswordHash,
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&pending).Error
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return user, nil
}

// ResendVerification rotates the verification token of a pending
// registration and emails the new link.
func (s *authService) ResendVerification(ctx context.Context, email string) (*SignupResult, error) {
	email = normalizeEmail(email)

	var pending models.PendingRegistration
	if err := s.db.Where("email = ?", email).First(&pending).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrRegistrationNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	token, tokenHash, err := newToken()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.db.Model(&pending).Updates(map[string]interface{}{
		"verification_token_hash": tokenHash,
		"verification_expiry":     s.now().UTC().Add(verificationExpiry),
	}).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	url := s.link("verify-email", token)
	if err := s.sendVerification(ctx, &pending, url); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrEmailDeliveryFailed, err)
	}
	return &SignupResult{Email: email, VerificationURL: url}, nil
}

// Login checks credentials. Unverified signups are told to verify first.
func (s *authService) Login(email, password string) (*models.User, error) {
	email = normalizeEmail(email)

	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		var count int64
		if err := s.db.Model(&models.PendingRegistration{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count > 0 {
			return nil, apperrors.ErrEmailNotVerified
		}
		return nil, apperrors.ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, apperrors.ErrInvalidCredentials
	}
	return &user, nil
}

// Logout revokes an access token until it would have expired anyway.
func (s *authService) Logout(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.sessions.Revoke(ctx, tokenID, ttl); err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// ForgotPassword emails a reset link when the user exists. Unknown emails
// succeed silently so callers cannot probe for accounts.
func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)

	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	token, tokenHash, err := newToken()
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.db.Model(&user).Updates(map[string]interface{}{
		"reset_token_hash":   tokenHash,
		"reset_token_expiry": s.now().UTC().Add(resetExpiry),
	}).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	err = s.notifier.Send(ctx, notify.Email{
		Kind:    notify.KindPasswordReset,
		To:      user.Email,
		Name:    user.FullName,
		Subject: "Reset your password",
		Link:    s.link("reset-password", token),
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrEmailDeliveryFailed, err)
	}
	return nil
}

// userByResetToken returns the user holding an unexpired reset token.
func (s *authService) userByResetToken(token string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("reset_token_hash = ?", hashToken(token)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidToken
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if user.ResetTokenExpiry == nil || !s.now().Before(*user.ResetTokenExpiry) {
		return nil, apperrors.ErrInvalidToken
	}
	return &user, nil
}

// VerifyResetToken returns the email the reset token was issued for.
func (s *authService) VerifyResetToken(token string) (string, error) {
	user, err := s.userByResetToken(token)
	if err != nil {
		return "", err
	}
	return user.Email, nil
}

// ResetPassword sets a new password and consumes the reset token.
func (s *authService) ResetPassword(token, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return apperrors.ErrPasswordTooShort
	}
	user, err := s.userByResetToken(token)
	if err != nil {
		return err
	}
	return s.setPassword(user, newPassword)
}

// UpdatePassword changes the password of a logged-in user.
func (s *authService) UpdatePassword(userID, currentPassword, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return apperrors.ErrPasswordTooShort
	}
	user, err := s.GetProfile(userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)) != nil {
		return apperrors.ErrIncorrectPassword
	}
	return s.setPassword(user, newPassword)
}

func (s *authService) setPassword(user *models.User, password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.db.Model(user).Updates(map[string]interface{}{
		"password_hash":      string(hashedPassword),
		"reset_token_hash":   nil,
		"reset_token_expiry": nil,
	}).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetProfile returns the user by ID.
func (s *authService) GetProfile(userID string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// GetBankConnectionStatus reports whether the user has linked a bank.
func (s *authService) GetBankConnectionStatus(userID string) (bool, error) {
	user, err := s.GetProfile(userID)
	if err != nil {
		return false, err
	}
	return user.BankConnected, nil
}

// SetBankConnected marks the user's bank as connected without a provider link.
func (s *authService) SetBankConnected(userID string) error {
	res := s.db.Model(&models.User{}).Where("id = ?", userID).Update("bank_connected", true)
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}
