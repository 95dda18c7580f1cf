package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePromoType(t *testing.T) {
	assert.Equal(t, PromoPercentage, ParsePromoType("percentage"))
	assert.Equal(t, PromoPercentage, ParsePromoType("  PERCENTAGE "))
	assert.Equal(t, PromoFixedPrice, ParsePromoType("fixed_price"))
	assert.Equal(t, PromoNone, ParsePromoType("none"))
	assert.Equal(t, PromoNone, ParsePromoType(""))
	assert.Equal(t, PromoNone, ParsePromoType("garbage"))
}

func TestTicketTier_EffectivePrice(t *testing.T) {
	t.Run("no promo", func(t *testing.T) {
		tier := TicketTier{Price: 5000, PromoType: PromoNone}
		assert.Equal(t, int64(5000), tier.EffectivePrice(""))
		assert.Equal(t, int64(5000), tier.EffectivePrice("ANYCODE"))
	})

	t.Run("percentage", func(t *testing.T) {
		tier := TicketTier{Price: 5000, PromoType: PromoPercentage, PromoValue: 20}
		assert.Equal(t, int64(4000), tier.EffectivePrice(""))
	})

	t.Run("percentage is clamped", func(t *testing.T) {
		over := TicketTier{Price: 5000, PromoType: PromoPercentage, PromoValue: 150}
		assert.Equal(t, int64(0), over.EffectivePrice(""))

		under := TicketTier{Price: 5000, PromoType: PromoPercentage, PromoValue: -10}
		assert.Equal(t, int64(5000), under.EffectivePrice(""))
	})

	t.Run("fixed price", func(t *testing.T) {
		tier := TicketTier{Price: 5000, PromoType: PromoFixedPrice, PromoValue: 3500}
		assert.Equal(t, int64(3500), tier.EffectivePrice(""))

		negative := TicketTier{Price: 5000, PromoType: PromoFixedPrice, PromoValue: -1}
		assert.Equal(t, int64(0), negative.EffectivePrice(""))
	})

	t.Run("code gated", func(t *testing.T) {
		tier := TicketTier{Price: 5000, PromoType: PromoPercentage, PromoValue: 50, PromoCode: "EARLY"}
		assert.Equal(t, int64(5000), tier.EffectivePrice(""))
		assert.Equal(t, int64(5000), tier.EffectivePrice("WRONG"))
		assert.Equal(t, int64(2500), tier.EffectivePrice("EARLY"))
		assert.Equal(t, int64(2500), tier.EffectivePrice("  early "))
	})
}
