package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/andy/wattsun/internal/config"
	"github.com/andy/wattsun/internal/domain"
	"github.com/andy/wattsun/internal/service"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithConfig_Ephemeral(t *testing.T) {
	ctx := context.Background()
	cfg := config.DefaultConfig()
	cfg.Invoice.DraftRows = 3
	cfg.Invoice.OutputDir = filepath.Join(t.TempDir(), "out")
	cfg.Company.Name = "Wattsun"

	a, err := NewWithConfig(ctx, cfg, zerolog.Nop(), Options{Ephemeral: true})
	require.NoError(t, err)
	defer a.Close()
	assert.Nil(t, a.DB)

	c := a.NewController()
	require.NoError(t, c.Start(ctx))
	assert.Len(t, c.Draft().Items, 3)

	require.NoError(t, c.SetName("Ephemeral"))
	require.NoError(t, c.UpdateField(0, domain.FieldQuantity, "1"))
	require.NoError(t, c.UpdateField(0, domain.FieldDescription, "Panel"))
	require.NoError(t, c.UpdateField(0, domain.FieldUnitPrice, "90"))
	outcome, err := c.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, service.SaveCompleted, outcome)

	saved, err := a.Saved.List(ctx)
	require.NoError(t, err)
	require.Len(t, saved, 1)

	assert.Equal(t, "Wattsun", a.RenderOptions().Company.Name)
	assert.Equal(t, "Rs", a.RenderOptions().CurrencyPrefix)
}

func TestNewWithConfig_RejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Invoice.DraftRows = 0

	_, err := NewWithConfig(context.Background(), cfg, zerolog.Nop(), Options{Ephemeral: true})
	assert.Error(t, err)
}
