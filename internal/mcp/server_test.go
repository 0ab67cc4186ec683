package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestServer_Initialization verifies server construction with different base directories.
func TestServer_Initialization(t *testing.T) {
	t.Run("default path creates directory", func(t *testing.T) {
		server, err := NewServer("")
		require.NoError(t, err)
		defer server.storage.Close()

		assert.NotNil(t, server)
	})

	t.Run("custom path creates directory", func(t *testing.T) {
		tmpDir := t.TempDir()

		server, err := NewServer(tmpDir)
		require.NoError(t, err)
		defer server.storage.Close()

		assert.NotNil(t, server)
		assert.NotNil(t, server.storage)
	})

	t.Run("server has all required components", func(t *testing.T) {
		tmpDir := t.TempDir()

		server, err := NewServer(tmpDir)
		require.NoError(t, err)
		defer server.storage.Close()

		assert.NotNil(t, server.mcp, "MCP server should be initialized")
		assert.NotNil(t, server.storage, "Storage should be initialized")
		assert.NotNil(t, server.indexer, "Indexer should be initialized")
		assert.NotNil(t, server.searcher, "Searcher should be initialized")
	})
}
