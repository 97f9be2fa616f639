package services

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"financially/internal/categories"
	apperrors "financially/internal/errors"
	"financially/internal/models"
)

// alertService stores alert rules. Rules are never evaluated here.
type alertService struct {
	db *gorm.DB
}

// NewAlertService creates a new AlertServicer.
func NewAlertService(db *gorm.DB) AlertServicer {
	return &alertService{db: db}
}

func validateAlertFields(fields AlertFields) error {
	if fields.Type != nil && !fields.Type.IsValid() {
		return apperrors.ErrInvalidAlertType
	}
	if fields.Category != nil && *fields.Category != "" && !categories.IsValid(*fields.Category) {
		return apperrors.ErrInvalidCategory
	}
	if fields.Threshold != nil && fields.Threshold.IsNegative() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "threshold must not be negative")
	}
	return nil
}

// CreateAlert stores a new alert rule. Alerts are enabled unless stated otherwise.
func (s *alertService) CreateAlert(userID string, fields AlertFields) (*models.Alert, error) {
	if fields.Type == nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "alert type is required")
	}
	if err := validateAlertFields(fields); err != nil {
		return nil, err
	}

	alert := &models.Alert{
		UserID:    userID,
		Type:      *fields.Type,
		Threshold: decimal.Zero,
		Enabled:   true,
	}
	if fields.Category != nil {
		alert.Category = *fields.Category
	}
	if fields.Threshold != nil {
		alert.Threshold = *fields.Threshold
	}
	if fields.Message != nil {
		alert.Message = *fields.Message
	}
	if fields.Enabled != nil {
		alert.Enabled = *fields.Enabled
	}

	if err := s.db.Create(alert).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return alert, nil
}

// GetUserAlerts lists the user's alerts, newest first.
func (s *alertService) GetUserAlerts(userID string) ([]models.Alert, error) {
	alerts := []models.Alert{}
	if err := s.db.Where("user_id = ?", userID).Order("created_at DESC, id DESC").Find(&alerts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return alerts, nil
}

// GetAlertByID returns an alert if it belongs to the user.
func (s *alertService) GetAlertByID(userID, alertID string) (*models.Alert, error) {
	var alert models.Alert
	if err := s.db.Where("id = ? AND user_id = ?", alertID, userID).First(&alert).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAlertNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &alert, nil
}

// UpdateAlert applies the non-nil fields to an alert.
func (s *alertService) UpdateAlert(userID, alertID string, fields AlertFields) (*models.Alert, error) {
	alert, err := s.GetAlertByID(userID, alertID)
	if err != nil {
		return nil, err
	}
	if err := validateAlertFields(fields); err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if fields.Type != nil {
		updates["type"] = *fields.Type
	}
	if fields.Category != nil {
		updates["category"] = *fields.Category
	}
	if fields.Threshold != nil {
		updates["threshold"] = *fields.Threshold
	}
	if fields.Message != nil {
		updates["message"] = *fields.Message
	}
	if fields.Enabled != nil {
		updates["enabled"] = *fields.Enabled
	}

	if len(updates) > 0 {
		if err := s.db.Model(alert).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return s.GetAlertByID(userID, alertID)
}

// DeleteAlert soft-deletes an alert.
func (s *alertService) DeleteAlert(userID, alertID string) error {
	alert, err := s.GetAlertByID(userID, alertID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(alert).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
