package entity

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestSumItems(t *testing.T) {
	items := []Item{
		{Price: decimal.RequireFromString("2.50"), Quantity: 1},
		{Price: decimal.RequireFromString("3.00"), Quantity: 1},
		{Price: decimal.RequireFromString("0.335"), Quantity: 3},
	}
	require.Equal(t, "6.51", SumItems(items).StringFixed(2))
	require.True(t, SumItems(nil).IsZero())
}

func TestShopHasAddress(t *testing.T) {
	empty := ""
	addr := "1 Main St"
	require.False(t, (*Shop)(nil).HasAddress())
	require.False(t, (&Shop{}).HasAddress())
	require.False(t, (&Shop{Address: &empty}).HasAddress())
	require.True(t, (&Shop{Address: &addr}).HasAddress())
}
