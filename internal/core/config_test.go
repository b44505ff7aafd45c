package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFromEnvFallbacks(t *testing.T) {
	t.Setenv("APP_PDF_COMPRESS", "talvez")
	t.Setenv("APP_HTTP_WRITE_TIMEOUT", "")
	t.Setenv("APP_DB_PORT", "abc")

	cfg := FromEnv()
	require.True(t, cfg.PDFCompress)
	require.Equal(t, 60*time.Second, cfg.HTTPWriteTimeout)
	require.Equal(t, 5432, cfg.DBPort)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("APP_DB_ENGINE", "PostgreSQL")
	t.Setenv("APP_LOG_LEVEL", "debug")
	t.Setenv("APP_PDF_LOCALE", "en")
	t.Setenv("APP_PDF_BRAND_NAME", "ACME Log")
	t.Setenv("APP_PDF_ZERO_OVERRIDE_FALLBACK", "true")
	t.Setenv("APP_HTTP_READ_TIMEOUT", "5")

	cfg := FromEnv()
	require.Equal(t, "postgresql", cfg.DBEngine)
	require.Equal(t, "DEBUG", cfg.LogLevel)
	require.Equal(t, "en", cfg.PDFLocale)
	require.Equal(t, "ACME Log", cfg.PDFBrandName)
	require.True(t, cfg.PDFZeroOverrideFallback)
	require.Equal(t, 5*time.Second, cfg.HTTPReadTimeout)
	require.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	valid := Config{DBEngine: "sqlite", PDFLocale: "pt-BR", PDFBrandName: "BRHUB Envios"}
	require.NoError(t, valid.Validate())

	cases := map[string]func(c *Config){
		"engine": func(c *Config) { c.DBEngine = "mysql" },
		"locale": func(c *Config) { c.PDFLocale = "es" },
		"brand":  func(c *Config) { c.PDFBrandName = "  " },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := valid
			mutate(&c)
			require.ErrorIs(t, c.Validate(), ErrConfiguration)
		})
	}
}
