//go:build integration

package storage

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmongo "github.com/testcontainers/testcontainers-go/modules/mongodb"
	"github.com/testcontainers/testcontainers-go/wait"

	"backoffice/internal/config"
	"backoffice/internal/database"
)

func TestIntegration_GridFSStore(t *testing.T) {
	ctx := context.Background()
	container, err := tcmongo.Run(ctx,
		"mongo:7",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Waiting for connections").WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, container.Terminate(ctx)) })

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	client, db, err := database.NewMongo(ctx, config.MongoConfig{URI: uri, Database: "evidence_test"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(ctx) })

	store := NewGridFSStore(db, "http://localhost:8080/")

	putCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	url, err := store.Put(putCtx, "allocations/EFT", "../slip.pdf", strings.NewReader("%PDF-1.7 proof"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://localhost:8080/api/evidence/"), url)

	oid, err := IDFromURL(url)
	require.NoError(t, err)

	obj, err := store.Open(ctx, oid.Hex())
	require.NoError(t, err)
	body, err := io.ReadAll(obj)
	require.NoError(t, err)
	require.NoError(t, obj.Close())
	assert.Equal(t, "%PDF-1.7 proof", string(body))
	assert.Equal(t, "slip.pdf", obj.Name)
	assert.Equal(t, "application/pdf", obj.ContentType)
	assert.EqualValues(t, len(body), obj.Size)

	require.NoError(t, store.Delete(ctx, url))
	require.NoError(t, store.Delete(ctx, url), "deleting twice is a no-op")

	_, err = store.Open(ctx, oid.Hex())
	assert.ErrorIs(t, err, ErrNotFound)
}
