package detection

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecords(t *testing.T) {
	t.Run("array with comments", func(t *testing.T) {
		data := []byte(`[
			// seed user
			{"userId": "u1", "email": "a@example.com",},
		]`)
		records, err := ParseRecords(data)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "u1", records[0].UserID)
	})

	t.Run("wrapped records object", func(t *testing.T) {
		records, err := ParseRecords([]byte(`{"records":[{"userId":"u1"},{"userId":"u2"}]}`))
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("invalid payload", func(t *testing.T) {
		_, err := ParseRecords([]byte(`"nope"`))
		require.Error(t, err)
	})
}

func TestLoadReference(t *testing.T) {
	t.Run("empty path yields empty population", func(t *testing.T) {
		records, err := LoadReference("")
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("reads file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "legit.json")
		require.NoError(t, os.WriteFile(path, []byte(`[{"userId":"ref-1","deviceId":"d1"}]`), 0o600))

		records, err := LoadReference(path)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "d1", records[0].DeviceID)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadReference(filepath.Join(t.TempDir(), "missing.json"))
		require.Error(t, err)
	})
}
