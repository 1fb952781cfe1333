package terminal

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mesaviva/pos-payments-terminal/internal/billing"
	"github.com/mesaviva/pos-payments-terminal/internal/cache"
	"github.com/mesaviva/pos-payments-terminal/internal/clients"
	"github.com/mesaviva/pos-payments-terminal/internal/metrics"
	"github.com/mesaviva/pos-payments-terminal/internal/models"
)

// ConfigResolver merges the remote restaurant configuration with the
// shared cache into the effective tax and tip policy. Resolution never
// fails: remote fetch, then cache, then built-in defaults. The payment
// flow is never blocked on configuration availability.
type ConfigResolver struct {
	client clients.PosClient
	cache  cache.ConfigCache
	logger *slog.Logger

	mu      sync.RWMutex
	current *models.SystemConfiguration
}

// NewConfigResolver creates a resolver with no configuration loaded yet.
func NewConfigResolver(client clients.PosClient, configCache cache.ConfigCache, logger *slog.Logger) *ConfigResolver {
	return &ConfigResolver{
		client: client,
		cache:  configCache,
		logger: logger,
	}
}

// Refresh fetches the configuration from the POS core. On success the
// result is mirrored into the shared cache (which broadcasts the change
// to other terminals). On failure the most recent cached value is used;
// with nothing cached the defaults stay in effect.
func (r *ConfigResolver) Refresh(ctx context.Context) {
	cfg, err := r.client.GetConfiguration(ctx)
	if err == nil && cfg != nil {
		r.setCurrent(cfg)
		metrics.ConfigRefreshes.WithLabelValues("remote").Inc()
		if cacheErr := r.cache.Set(ctx, cfg); cacheErr != nil {
			r.logger.Warn("could not mirror configuration to cache", "error", cacheErr)
		}
		r.logger.Info("restaurant configuration loaded",
			"vat", cfg.Taxes.VATPercentage,
			"tip_options", billing.BuildTipOptions(&cfg.Tips),
		)
		return
	}

	r.logger.Warn("configuration fetch failed, falling back", "error", err)

	if r.Current() != nil {
		return
	}

	cached, cacheErr := r.cache.Get(ctx)
	if cacheErr != nil || cached == nil {
		r.logger.Warn("no cached configuration, using defaults",
			"tip_options", billing.DefaultTipOptions,
			"vat", billing.DefaultTaxPercentage,
		)
		return
	}

	r.setCurrent(cached)
	metrics.ConfigRefreshes.WithLabelValues("cache").Inc()
	r.logger.Info("using cached restaurant configuration")
}

// ApplyExternal installs a configuration received from another terminal
// or the back office, without a remote fetch.
func (r *ConfigResolver) ApplyExternal(cfg *models.SystemConfiguration) {
	if cfg == nil {
		return
	}
	r.setCurrent(cfg)
	metrics.ConfigRefreshes.WithLabelValues("broadcast").Inc()
}

// Current returns the last known configuration, or nil when only the
// defaults are in effect.
func (r *ConfigResolver) Current() *models.SystemConfiguration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// TipOptions returns the effective preset list.
func (r *ConfigResolver) TipOptions() []float64 {
	cfg := r.Current()
	if cfg == nil {
		return append([]float64(nil), billing.DefaultTipOptions...)
	}
	return billing.BuildTipOptions(&cfg.Tips)
}

// TaxPercentage returns the effective VAT percentage.
func (r *ConfigResolver) TaxPercentage() float64 {
	return billing.TaxPercentage(r.Current())
}

// DefaultTipPreset returns the preset selected when no custom tip is
// active.
func (r *ConfigResolver) DefaultTipPreset() float64 {
	return billing.DefaultPreset(r.TipOptions())
}

func (r *ConfigResolver) setCurrent(cfg *models.SystemConfiguration) {
	r.mu.Lock()
	r.current = cfg
	r.mu.Unlock()
}
