package storage

import (
	"context"
	"testing"

	"grisera/internal/config"
	"grisera/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenGraph(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Graph.DSN = ":memory:"

	repo, err := Open(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	defer repo.Close()
	assert.Equal(t, "graph", repo.Backend())
}

func TestOpenDocument(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Backend = config.BackendDocument
	cfg.Document.InMemory = true

	repo, err := Open(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	defer repo.Close()
	assert.Equal(t, "document", repo.Backend())
}

func TestOpenUnknown(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Backend = "columnar"
	_, err := Open(context.Background(), cfg, logging.Discard())
	assert.Error(t, err)

	cfg = config.DefaultConfig()
	cfg.Backend = config.BackendDocument
	cfg.Document.Driver = "couch"
	_, err = Open(context.Background(), cfg, logging.Discard())
	assert.Error(t, err)
}
