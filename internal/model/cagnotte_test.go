package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCagnotte_CanContribute(t *testing.T) {
	online := Cagnotte{Status: CagnotteOnline, MinContribution: 500}

	assert.NoError(t, online.CanContribute(500))
	assert.NoError(t, online.CanContribute(10000))

	err := online.CanContribute(499)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "minimum contribution is 500")

	for _, status := range []string{CagnottePendingValidation, CagnotteRejected, CagnottePendingDocuments, CagnottePendingPayout, CagnotteCompleted} {
		g := Cagnotte{Status: status}
		assert.Error(t, g.CanContribute(1000), "status %s", status)
	}

	open := Cagnotte{Status: CagnotteOnline, MinContribution: 0}
	assert.Error(t, open.CanContribute(0))
	assert.Error(t, open.CanContribute(-5))
}

func TestCagnotte_CanRequestPayout(t *testing.T) {
	g := Cagnotte{Status: CagnotteOnline}
	assert.NoError(t, g.CanRequestPayout(1))

	assert.Error(t, g.CanRequestPayout(0))
	assert.Error(t, Cagnotte{Status: CagnottePendingPayout}.CanRequestPayout(5000))
}

func TestCanTransitionCagnotte(t *testing.T) {
	allowed := [][2]string{
		{CagnottePendingValidation, CagnotteOnline},
		{CagnottePendingValidation, CagnotteRejected},
		{CagnottePendingValidation, CagnottePendingDocuments},
		{CagnottePendingDocuments, CagnotteOnline},
		{CagnottePendingDocuments, CagnotteRejected},
		{CagnotteOnline, CagnottePendingPayout},
		{CagnotteOnline, CagnottePendingDocuments},
		{CagnotteOnline, CagnotteRejected},
		{CagnottePendingPayout, CagnotteCompleted},
	}
	for _, tr := range allowed {
		assert.NoError(t, CanTransitionCagnotte(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}

	denied := [][2]string{
		{CagnottePendingValidation, CagnottePendingPayout},
		{CagnotteOnline, CagnotteCompleted},
		{CagnotteRejected, CagnotteOnline},
		{CagnotteCompleted, CagnotteOnline},
		{CagnottePendingPayout, CagnotteOnline},
	}
	for _, tr := range denied {
		assert.Error(t, CanTransitionCagnotte(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}
}

func TestCagnotteContribution_DisplayName(t *testing.T) {
	assert.Equal(t, "Awa Diop", CagnotteContribution{Name: "Awa Diop"}.DisplayName())
	assert.Equal(t, "Anonyme", CagnotteContribution{Name: "Awa Diop", Anonymous: true}.DisplayName())
	assert.Equal(t, "Anonyme", CagnotteContribution{}.DisplayName())
}
