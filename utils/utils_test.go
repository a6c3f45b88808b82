package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resellerdash/config"
	"resellerdash/models"
)

func TestJWTRoundTrip(t *testing.T) {
	config.AppConfig.JWTSecret = "test-secret"
	config.AppConfig.JWTExpiry = time.Hour

	user := models.AdminUser{ID: 3, AdminID: 3, Name: "Super Admin", Username: "admin", Role: models.RoleAdmin}
	token, expiresAt, err := GenerateJWTToken(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := ParseJWTToken(token)
	require.NoError(t, err)
	assert.Equal(t, user, claims.User())
	assert.NotEmpty(t, claims.ID)
}

func TestParseJWTTokenRejectsOtherSecret(t *testing.T) {
	config.AppConfig.JWTSecret = "one"
	token, _, err := GenerateJWTToken(models.AdminUser{AdminID: 1})
	require.NoError(t, err)

	config.AppConfig.JWTSecret = "two"
	_, err = ParseJWTToken(token)
	assert.Error(t, err)
}

func TestValidateStruct(t *testing.T) {
	type request struct {
		Username string `validate:"required"`
		Comment  string `validate:"required,max=5"`
	}

	assert.NoError(t, ValidateStruct(request{Username: "a", Comment: "ok"}))

	err := ValidateStruct(request{Comment: "too long"})
	require.Error(t, err)
	assert.Equal(t, "username is required, comment must be at most 5 characters", err.Error())
}

func TestParseID(t *testing.T) {
	id, err := ParseID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	_, err = ParseID("0")
	assert.Error(t, err)
	_, err = ParseID("abc")
	assert.Error(t, err)
}
