package filestore

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/eventkb/internal/config"
)

func TestLocalStorePutOpen(t *testing.T) {
	store, err := New(config.FileStoreConfig{
		Type: "local",
		Data: map[string]interface{}{"dir": t.TempDir()},
	})
	require.NoError(t, err)
	require.Equal(t, "local", store.Type())

	ctx := context.Background()
	body := "acquired text"
	require.NoError(t, store.Put(ctx, "sources/ev/src.txt", strings.NewReader(body), int64(len(body))))
	require.NoError(t, store.Put(ctx, "sources/ev/src.txt", strings.NewReader("replaced"), 8))

	rc, err := store.Open(ctx, "sources/ev/src.txt")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "replaced", string(data))
}

func TestCleanKey(t *testing.T) {
	for _, key := range []string{"", "/abs", "../up", "a/../../up", "win\\path", "."} {
		_, err := cleanKey(key)
		require.Error(t, err, key)
	}
	key, err := cleanKey("sources/ev/./src.txt")
	require.NoError(t, err)
	require.Equal(t, "sources/ev/src.txt", key)
}

func TestNewRejectsUnknownType(t *testing.T) {
	_, err := New(config.FileStoreConfig{Type: "ftp"})
	require.Error(t, err)
	_, err = New(config.FileStoreConfig{Type: "local", Data: map[string]interface{}{}})
	require.Error(t, err)
	_, err = New(config.FileStoreConfig{Type: "s3", Data: map[string]interface{}{"bucket": "b"}})
	require.Error(t, err)
}

func TestBuildEndpoint(t *testing.T) {
	require.Equal(t, "", buildEndpoint("", true))
	require.Equal(t, "https://minio:9000", buildEndpoint("minio:9000", true))
	require.Equal(t, "http://minio:9000", buildEndpoint("minio:9000/", false))
	require.Equal(t, "https://s3.example.com", buildEndpoint("https://s3.example.com/", false))
}
