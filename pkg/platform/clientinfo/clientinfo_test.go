package clientinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	t.Run("desktop browser", func(t *testing.T) {
		info := Parse("10.0.0.1", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36", "dev-1")
		assert.Equal(t, "10.0.0.1", info.IP)
		assert.Equal(t, "dev-1", info.DeviceID)
		assert.Equal(t, "Chrome", info.Browser)
		assert.False(t, info.Mobile)
		assert.False(t, info.Bot)
	})

	t.Run("crawler flagged as bot", func(t *testing.T) {
		info := Parse("", "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)", "")
		assert.True(t, info.Bot)
	})

	t.Run("empty user agent", func(t *testing.T) {
		info := Parse("10.0.0.1", "", "")
		assert.Empty(t, info.Browser)
		assert.False(t, info.Bot)
	})
}
