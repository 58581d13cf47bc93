package schema

import (
	"testing"
	"time"

	"github.com/hamba/avro/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckoutV1(t *testing.T) {
	t.Run("Regular", func(t *testing.T) {
		vMarshal := CheckoutV1{
			CheckoutID: "testCheckoutID",
			Lines: []CheckoutLineV1{
				{ProductID: 1, Title: "Sourdough", Quantity: 2, UnitPrice: 6.5},
				{ProductID: 2, Title: "Croissant", Quantity: 1, UnitPrice: 2.75,
					ImageURL: "croissant.png"},
			},
			Total:     15.75,
			CreatedAt: time.Date(2025, 3, 1, 8, 30, 0, 125_000_000, time.UTC),
		}

		s, err := avro.Parse(CheckoutSchemaTextV1)
		require.NoError(t, err)

		data, err := avro.Marshal(s, vMarshal)
		require.NoError(t, err)

		var vUnmarshal CheckoutV1
		err = avro.Unmarshal(s, data, &vUnmarshal)
		require.NoError(t, err)

		assert.Equal(t, vMarshal.CheckoutID, vUnmarshal.CheckoutID)
		assert.Equal(t, vMarshal.Lines, vUnmarshal.Lines)
		assert.Equal(t, vMarshal.Total, vUnmarshal.Total)
		assert.True(t, vMarshal.CreatedAt.Equal(vUnmarshal.CreatedAt))
	})

	t.Run("InvalidSchema", func(t *testing.T) {
		s, err := avro.Parse(CheckoutSchemaTextV1)
		require.NoError(t, err)

		_, err = avro.Marshal(s, struct{ Foo string }{"bar"})
		assert.Error(t, err)
	})
}
