package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"syncvault/internal/platform/config"
	"syncvault/internal/storage/memory"
	"syncvault/pkg/domain"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newApp(t *testing.T, cfg config.Config, opts ...Option) *App {
	t.Helper()
	opts = append([]Option{WithRegistry(prometheus.NewRegistry())}, opts...)
	a, err := New(context.Background(), cfg, discard(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return a
}

func TestNew_EveryVariant(t *testing.T) {
	for _, variant := range []string{config.EscrowSimple, config.EscrowDual, config.EscrowOpen} {
		t.Run(variant, func(t *testing.T) {
			cfg := config.Default()
			cfg.Escrow.Variant = variant
			a := newApp(t, cfg)

			issuer, found, err := a.Ledger.Issuer(context.Background())
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, domain.Identity(cfg.Escrow.Identity), issuer)

			w := httptest.NewRecorder()
			a.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/goals/1", nil))
			assert.NotEqual(t, http.StatusMethodNotAllowed, w.Code)
		})
	}
}

func TestNew_RejectsBadConfig(t *testing.T) {
	cases := map[string]func(*config.Config){
		"unknown variant":   func(c *config.Config) { c.Escrow.Variant = "triple" },
		"fractional reward": func(c *config.Config) { c.Escrow.ApprovalReward = "1.5" },
		"zero reward":       func(c *config.Config) { c.Escrow.ApprovalReward = "0" },
		"empty identity":    func(c *config.Config) { c.Escrow.Identity = "" },
		"unknown backend":   func(c *config.Config) { c.Storage.Backend = "tape" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			mutate(&cfg)
			_, err := New(context.Background(), cfg, discard(), WithRegistry(prometheus.NewRegistry()))
			assert.Error(t, err)
		})
	}
}

func TestNew_RestartKeepsIssuer(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Backend = config.StorageBolt
	cfg.Storage.BoltPath = filepath.Join(t.TempDir(), "vault.db")

	first, err := New(context.Background(), cfg, discard(), WithRegistry(prometheus.NewRegistry()))
	require.NoError(t, err)
	require.NoError(t, first.Close(context.Background()))

	second := newApp(t, cfg)
	issuer, found, err := second.Ledger.Issuer(context.Background())
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, domain.Identity(cfg.Escrow.Identity), issuer)
}

func TestNew_WithBackend(t *testing.T) {
	a := newApp(t, config.Default(), WithBackend(memory.New()))

	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ledger/supply", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"total_supply":"0"}`, w.Body.String())
}
