package dashboard

import (
	"context"
	"errors"
	"fmt"

	"resellerdash/models"
	"resellerdash/sources"
)

// Login verifies an operator's credentials.
func (s *Service) Login(ctx context.Context, username, password string) (models.AdminUser, error) {
	if s.admins == nil {
		return models.AdminUser{}, sources.ErrInvalidCredentials
	}
	return s.admins.Authenticate(ctx, username, password)
}

// UpdateAdmin changes an operator's username and/or password. The stored
// row is copied to the admin sheet; a failed copy is only logged.
func (s *Service) UpdateAdmin(ctx context.Context, adminID int64, update sources.AdminUpdate) (models.AdminUser, error) {
	if s.admins == nil {
		return models.AdminUser{}, sources.ErrUnavailable
	}
	admin, err := s.admins.UpdateAdmin(ctx, adminID, update)
	if err != nil {
		return models.AdminUser{}, fmt.Errorf("update admin: %w", err)
	}
	if s.sheets != nil {
		password := ""
		if update.Password != "" {
			password = admin.Password
		}
		if err := s.sheets.UpdateAdminCredentials(ctx, adminID, admin.Username, password); err != nil {
			s.log.WithError(err).WithField("admin_id", adminID).Error("mirroring admin update to the sheet failed")
		}
	}
	return admin.User(), nil
}

func isUnavailable(err error) bool {
	return errors.Is(err, sources.ErrUnavailable)
}
