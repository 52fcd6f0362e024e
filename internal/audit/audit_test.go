package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchiver(t *testing.T) {
	tempDir := "./test_archive"
	defer os.RemoveAll(tempDir)

	archiver := NewArchiver(tempDir)

	t.Run("SaveSnapshot creates directory and saves file", func(t *testing.T) {
		snapshot := map[string]interface{}{
			"account_id": "acc-1",
			"stage":      "locations_fetch",
			"error":      "provider returned 500",
		}

		filename, err := archiver.SaveSnapshot(snapshot)
		require.NoError(t, err)
		assert.NotEmpty(t, filename)
		assert.Contains(t, filename, ".json")

		_, err = os.Stat(tempDir)
		assert.NoError(t, err)

		fileContent, err := os.ReadFile(filepath.Join(tempDir, filename))
		require.NoError(t, err)

		var saved map[string]interface{}
		err = json.Unmarshal(fileContent, &saved)
		require.NoError(t, err)
		assert.Equal(t, "acc-1", saved["account_id"])
		assert.Equal(t, "provider returned 500", saved["error"])
	})

	t.Run("SaveSnapshot generates unique filenames", func(t *testing.T) {
		snapshot := map[string]string{"key": "value"}

		filename1, err := archiver.SaveSnapshot(snapshot)
		require.NoError(t, err)

		filename2, err := archiver.SaveSnapshot(snapshot)
		require.NoError(t, err)

		assert.NotEqual(t, filename1, filename2)
	})
}
