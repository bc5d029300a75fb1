package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayerRankOrder(t *testing.T) {
	assert.Less(t, LayerSource.Rank(), LayerStaging.Rank())
	assert.Less(t, LayerStaging.Rank(), LayerIntermediate.Rank())
	assert.Less(t, LayerIntermediate.Rank(), LayerMarts.Rank())
	assert.Equal(t, -1, Layer("bronze").Rank())
}

func TestParseLayer(t *testing.T) {
	l, err := ParseLayer(" Marts ")
	require.NoError(t, err)
	assert.Equal(t, LayerMarts, l)

	_, err = ParseLayer("gold")
	require.ErrorIs(t, err, ErrUnknownLayer)
}

func TestInferLayer(t *testing.T) {
	tests := []struct {
		schema string
		name   string
		want   Layer
	}{
		{"analytics_staging", "customers", LayerStaging},
		{"analytics_intermediate", "stg_orders", LayerIntermediate},
		{"marts", "orders", LayerMarts},
		{"analytics", "stg_orders", LayerStaging},
		{"analytics", "int_orders", LayerIntermediate},
		{"analytics", "dim_customers", LayerMarts},
		{"analytics", "fct_orders", LayerMarts},
		{"analytics", "mart_revenue", LayerMarts},
		{"", "raw_orders", LayerSource},
		{"", "orders", LayerStaging},
	}

	for _, tt := range tests {
		t.Run(tt.schema+"/"+tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferLayer(tt.schema, tt.name))
		})
	}
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "customer orders", DisplayName("mart_customer_orders"))
	assert.Equal(t, "orders", DisplayName("fct_orders"))
	assert.Equal(t, "ecommerce  customers", DisplayName("stg_ecommerce__customers"))
	assert.Equal(t, "plain", DisplayName("plain"))
}

func TestLayerTitle(t *testing.T) {
	assert.Equal(t, "Intermediate", LayerIntermediate.Title())
	assert.Equal(t, "", Layer("").Title())
}
