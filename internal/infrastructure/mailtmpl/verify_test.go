package mailtmpl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderVerify_ContainsCode(t *testing.T) {
	body, err := NewRenderer().RenderVerify("482913")
	require.NoError(t, err)

	assert.Contains(t, body, "<h1>Verify your email</h1>")
	assert.Contains(t, body, "<h2>482913</h2>")
}

func TestRenderVerify_EscapesMarkup(t *testing.T) {
	body, err := NewRenderer().RenderVerify("<b>x</b>")
	require.NoError(t, err)
	assert.NotContains(t, body, "<b>x</b>")
}
