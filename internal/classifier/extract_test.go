package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFirstJSONObject(t *testing.T) {
	t.Run("bare object", func(t *testing.T) {
		obj := ExtractFirstJSONObject(`{"quote_no": "Q-1", "value": 100}`)
		require.NotNil(t, obj)
		assert.Equal(t, "Q-1", obj["quote_no"])
	})

	t.Run("fenced object", func(t *testing.T) {
		obj := ExtractFirstJSONObject("```json\n{\"quote_no\": \"Q-1\"}\n```")
		require.NotNil(t, obj)
		assert.Equal(t, "Q-1", obj["quote_no"])
	})

	t.Run("object embedded in prose", func(t *testing.T) {
		obj := ExtractFirstJSONObject("Here is the result:\n{\"value\": 42}\nHope that helps!")
		require.NotNil(t, obj)
		assert.Equal(t, float64(42), obj["value"])
	})

	t.Run("malformed output", func(t *testing.T) {
		assert.Nil(t, ExtractFirstJSONObject("no json here"))
		assert.Nil(t, ExtractFirstJSONObject("{broken"))
		assert.Nil(t, ExtractFirstJSONObject(""))
	})
}

func TestSafeCoercions(t *testing.T) {
	assert.Equal(t, "x", safeString(" x "))
	assert.Equal(t, "", safeString(nil))
	assert.Equal(t, "", safeString(42))

	assert.Equal(t, 42, safeInt(float64(42)))
	assert.Equal(t, 42, safeInt("42"))
	assert.Equal(t, 42, safeInt(" 42.9 "))
	assert.Equal(t, 0, safeInt("n/a"))
	assert.Equal(t, 0, safeInt(nil))

	assert.True(t, safeBool(true))
	assert.False(t, safeBool("true"))
	assert.False(t, safeBool(nil))
}
