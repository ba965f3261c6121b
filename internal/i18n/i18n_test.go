package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate(t *testing.T) {
	require.NoError(t, Initialize())

	assert.Equal(t, "Order not found", T("en", KeyOrderNotFound))
	assert.Equal(t, "Order not found", T("fr", KeyOrderNotFound))
	assert.Equal(t, "Order cannot move from paid to shipped", T("en", KeyOrderInvalidTransition, "paid", "shipped"))
	assert.Equal(t, "missing.key", T("en", "missing.key"))
	assert.Contains(t, GetSupportedLanguages(), "en")
}
