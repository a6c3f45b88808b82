package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	assert.Error(t, LoadConfig())
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("REFRESH_INTERVAL", "90")
	t.Setenv("PARTNER_ID", "7")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "")

	require.NoError(t, LoadConfig())
	assert.Equal(t, int64(7), AppConfig.PartnerID)
	assert.Equal(t, 90*time.Second, AppConfig.RefreshInterval)
	assert.Equal(t, "Sheet1", AppConfig.Sheets.DeliverySheet)
	assert.Empty(t, AppConfig.DSN())
}

func TestGetEnvAsDuration(t *testing.T) {
	t.Setenv("SOME_INTERVAL", "2m")
	assert.Equal(t, 2*time.Minute, getEnvAsDuration("SOME_INTERVAL", time.Second))

	t.Setenv("SOME_INTERVAL", "soon")
	assert.Equal(t, time.Second, getEnvAsDuration("SOME_INTERVAL", time.Second))
}

func TestMaskPassword(t *testing.T) {
	assert.Equal(t,
		"host=db port=5432 user=app password=***** dbname=x",
		maskPassword("host=db port=5432 user=app password=hunter2 dbname=x"))
	assert.Equal(t,
		"postgres://app:*****@db:5432/x",
		maskPassword("postgres://app:hunter2@db:5432/x"))
}

func TestDSNFromParts(t *testing.T) {
	c := Config{DBHost: "db", DBPort: "5432", DBUser: "app", DBPassword: "pw", DBName: "x", DBSSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=app password=pw dbname=x sslmode=disable", c.DSN())

	c.DatabaseURL = "postgres://u:p@h/d"
	assert.Equal(t, "postgres://u:p@h/d", c.DSN())
}
