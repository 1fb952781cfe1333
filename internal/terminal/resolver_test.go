package terminal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesaviva/pos-payments-terminal/internal/apperrors"
	"github.com/mesaviva/pos-payments-terminal/internal/cache"
	"github.com/mesaviva/pos-payments-terminal/internal/clients"
	"github.com/mesaviva/pos-payments-terminal/internal/models"
)

func TestResolverRemoteConfigMirroredToCache(t *testing.T) {
	client := clients.NewMockPosClient()
	client.Configuration = &models.SystemConfiguration{
		Taxes: models.TaxSettings{VATPercentage: 8},
		Tips:  models.TipSettings{Option1: 12, Option2: 18, Option3: 25},
	}
	configCache := cache.NewMemoryConfigCache()

	resolver := NewConfigResolver(client, configCache, testLogger())
	resolver.Refresh(context.Background())

	assert.Equal(t, 8.0, resolver.TaxPercentage())
	assert.Equal(t, []float64{0, 12, 18, 25}, resolver.TipOptions())
	assert.Equal(t, 12.0, resolver.DefaultTipPreset())

	cached, err := configCache.Get(context.Background())
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, 8.0, cached.Taxes.VATPercentage)
}

func TestResolverFallsBackToCache(t *testing.T) {
	client := clients.NewMockPosClient()
	client.ConfigErr = &apperrors.ConnectivityError{}
	configCache := cache.NewMemoryConfigCache()
	require.NoError(t, configCache.Set(context.Background(), &models.SystemConfiguration{
		Taxes: models.TaxSettings{VATPercentage: 10},
		Tips:  models.TipSettings{Option1: 5, Option2: 10, Option3: 15},
	}))

	resolver := NewConfigResolver(client, configCache, testLogger())
	resolver.Refresh(context.Background())

	assert.Equal(t, 10.0, resolver.TaxPercentage())
	assert.Equal(t, []float64{0, 5, 10, 15}, resolver.TipOptions())
}

func TestResolverDefaultsWhenNothingAvailable(t *testing.T) {
	client := clients.NewMockPosClient()
	client.ConfigErr = &apperrors.ConnectivityError{}

	resolver := NewConfigResolver(client, cache.NewMemoryConfigCache(), testLogger())
	resolver.Refresh(context.Background())

	assert.Equal(t, 16.0, resolver.TaxPercentage())
	assert.Equal(t, []float64{0, 10, 15, 20}, resolver.TipOptions())
	assert.Equal(t, 10.0, resolver.DefaultTipPreset())
}

func TestResolverKeepsCurrentOnFetchFailure(t *testing.T) {
	client := clients.NewMockPosClient()
	client.Configuration = &models.SystemConfiguration{
		Taxes: models.TaxSettings{VATPercentage: 8},
	}

	resolver := NewConfigResolver(client, cache.NewMemoryConfigCache(), testLogger())
	resolver.Refresh(context.Background())
	require.Equal(t, 8.0, resolver.TaxPercentage())

	client.ConfigErr = &apperrors.ConnectivityError{}
	resolver.Refresh(context.Background())

	assert.Equal(t, 8.0, resolver.TaxPercentage())
}

func TestResolverApplyExternal(t *testing.T) {
	client := clients.NewMockPosClient()
	resolver := NewConfigResolver(client, cache.NewMemoryConfigCache(), testLogger())

	resolver.ApplyExternal(&models.SystemConfiguration{
		Taxes: models.TaxSettings{VATPercentage: 12},
		Tips:  models.TipSettings{Option1: 8},
	})

	assert.Equal(t, 12.0, resolver.TaxPercentage())
	assert.Equal(t, []float64{0, 8, 8, 8}, resolver.TipOptions())

	resolver.ApplyExternal(nil)
	assert.Equal(t, 12.0, resolver.TaxPercentage())
}
