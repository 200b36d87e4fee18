package config

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/example/turnos/internal/booking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("BUSINESS_DAYS", "")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, BackendPostgres, cfg.StoreBackend)
	assert.Equal(t, 30*time.Second, cfg.CalendarRefresh)
	assert.Equal(t, booking.Clock(17*60), cfg.Hours.Open)
	assert.Equal(t, booking.Clock(21*60), cfg.Hours.Close)
	assert.False(t, cfg.Hours.CloseInclusive)
	assert.Equal(t, booking.DefaultTimezone, cfg.Hours.Location.String())
	assert.Len(t, cfg.Hours.Days, 5)
	assert.Error(t, cfg.RequireCookieKeys())
}

func TestFromEnv_BusinessHours(t *testing.T) {
	t.Setenv("BUSINESS_OPEN", "17:00")
	t.Setenv("BUSINESS_CLOSE", "22:00")
	t.Setenv("BUSINESS_CLOSE_INCLUSIVE", "true")
	t.Setenv("BUSINESS_TIMEZONE", "UTC")
	t.Setenv("BUSINESS_DAYS", "mon,wed")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, booking.Clock(22*60), cfg.Hours.Close)
	assert.True(t, cfg.Hours.CloseInclusive)
	assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday}, cfg.Hours.Days)
	assert.Equal(t, time.UTC, cfg.Hours.Location)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := map[string]string{
		"STORE_BACKEND":            "sqlite",
		"BUSINESS_OPEN":            "5pm",
		"BUSINESS_CLOSE":           "16:00",
		"BUSINESS_TIMEZONE":        "Mars/Olympus",
		"BUSINESS_CLOSE_INCLUSIVE": "maybe",
		"CALENDAR_REFRESH_SECONDS": "0",
	}
	for k, v := range tests {
		t.Run(k, func(t *testing.T) {
			t.Setenv(k, v)
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestFromEnv_SupabaseNeedsCredentials(t *testing.T) {
	t.Setenv("STORE_BACKEND", "supabase")
	t.Setenv("SUPABASE_URL", "")
	_, err := FromEnv()
	assert.Error(t, err)

	t.Setenv("SUPABASE_URL", "https://abc.supabase.co/")
	t.Setenv("SUPABASE_KEY", "anon")
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "https://abc.supabase.co", cfg.SupabaseURL)
}

func TestCookieKeys(t *testing.T) {
	hash := base64.StdEncoding.EncodeToString(make([]byte, 32))
	dir := t.TempDir()
	blockFile := filepath.Join(dir, "block")
	require.NoError(t, os.WriteFile(blockFile, []byte(base64.StdEncoding.EncodeToString(make([]byte, 16))+"\n"), 0o600))

	t.Setenv("COOKIE_HASH_KEY", hash)
	t.Setenv("COOKIE_BLOCK_KEY", "file:"+blockFile)

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Len(t, cfg.CookieHashKey, 32)
	assert.Len(t, cfg.CookieBlockKey, 16)
	assert.NoError(t, cfg.RequireCookieKeys())
}

func TestPatientDataKey(t *testing.T) {
	t.Setenv("PATIENT_DATA_KEY", base64.StdEncoding.EncodeToString(make([]byte, 20)))
	_, err := FromEnv()
	assert.Error(t, err)

	t.Setenv("PATIENT_DATA_KEY", base64.StdEncoding.EncodeToString(make([]byte, 32)))
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Len(t, cfg.PatientDataKey, 32)
}

func TestKeyPathWithoutPrefixIsNotRead(t *testing.T) {
	keyFile := filepath.Join(t.TempDir(), "cookie.key")
	require.NoError(t, os.WriteFile(keyFile, []byte(base64.StdEncoding.EncodeToString(make([]byte, 32))), 0o600))

	t.Setenv("COOKIE_HASH_KEY", keyFile)
	_, err := FromEnv()
	assert.Error(t, err)

	t.Setenv("COOKIE_HASH_KEY", "file:"+filepath.Join(t.TempDir(), "missing"))
	_, err = FromEnv()
	assert.Error(t, err)
}

func TestTrustedProxies(t *testing.T) {
	t.Setenv("TRUSTED_PROXY", "10.0.0.1, 10.0.0.2,")
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, cfg.TrustedProxies)

	t.Setenv("TRUSTED_PROXY", "")
	cfg, err = FromEnv()
	require.NoError(t, err)
	assert.Empty(t, cfg.TrustedProxies)
}
