package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"social-poster/internal/platforms"
)

func TestSystemPrompt(t *testing.T) {
	c := platforms.NewCatalog(nil)
	p, ok := c.Platform("linkedin")
	require.True(t, ok)

	got := SystemPrompt(p, nil)
	assert.Contains(t, got, "لينكدإن")
	assert.Contains(t, got, "300-600 حرفاً")
	assert.Contains(t, got, "3-5 هاشتاقات")
	assert.Contains(t, got, defaultLanguageRule)

	d, ok := c.Dialect("egyptian")
	require.True(t, ok)
	got = SystemPrompt(p, &d)
	assert.NotContains(t, got, defaultLanguageRule)
	assert.Contains(t, got, d.Instruction)
}
