package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-unit-tests-0123456789"

func TestLoad(t *testing.T) {
	t.Run("默认配置", func(t *testing.T) {
		t.Setenv("DISPOMAIL_JWT_SECRET", testSecret)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "0.0.0.0", cfg.Server.Host)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, 24*time.Hour, cfg.Mailbox.Retention)
		assert.Equal(t, 24*time.Hour, cfg.Mailbox.SweepInterval)
		assert.Empty(t, cfg.Mailbox.BootstrapDomains)
		assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
		assert.Equal(t, "", cfg.Database.Type)
		assert.Equal(t, "dispomail", cfg.JWT.Issuer)
		assert.Equal(t, 15*time.Minute, cfg.JWT.AccessExpiry)
	})

	t.Run("环境变量覆盖默认值", func(t *testing.T) {
		t.Setenv("DISPOMAIL_JWT_SECRET", testSecret)
		t.Setenv("DISPOMAIL_SERVER_PORT", "9090")
		t.Setenv("DISPOMAIL_MAILBOX_RETENTION", "48h")
		t.Setenv("DISPOMAIL_MAILBOX_BOOTSTRAP_DOMAINS", "Tempmail.Example, drop.example")
		t.Setenv("DISPOMAIL_DATABASE_TYPE", "postgres")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 9090, cfg.Server.Port)
		assert.Equal(t, 48*time.Hour, cfg.Mailbox.Retention)
		assert.Equal(t, []string{"tempmail.example", "drop.example"}, cfg.Mailbox.BootstrapDomains)
		assert.Equal(t, "postgres", cfg.Database.Type)
	})

	t.Run("拒绝默认JWT密钥", func(t *testing.T) {
		t.Setenv("DISPOMAIL_JWT_SECRET", "change-me-in-production")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SECURITY ERROR")
	})

	t.Run("拒绝过短的JWT密钥", func(t *testing.T) {
		t.Setenv("DISPOMAIL_JWT_SECRET", "short")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "32 characters")
	})

	t.Run("拒绝非法保留时长", func(t *testing.T) {
		t.Setenv("DISPOMAIL_JWT_SECRET", testSecret)
		t.Setenv("DISPOMAIL_MAILBOX_RETENTION", "-1h")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "retention")
	})
}

func TestParseList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, parseList("a, b"))
	assert.Empty(t, parseList(""))
	assert.Equal(t, []string{"x"}, parseList(" x ,, "))
}
