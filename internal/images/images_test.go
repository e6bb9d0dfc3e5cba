package images

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloadAndLocal(t *testing.T) {
	var requests int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&requests, 1)
		fmt.Fprint(w, "conteúdo-jpg")
	}))
	defer srv.Close()

	store := NewStore(t.TempDir())
	urls := []string{srv.URL + "/1.jpg", srv.URL + "/2.jpg"}

	require.NoError(t, store.Download(42, urls))
	assert.Equal(t, int64(2), atomic.LoadInt64(&requests))
	assert.True(t, store.Has(42))

	local := store.Local(42)
	require.Len(t, local, 2)
	data, err := os.ReadFile(local[0])
	require.NoError(t, err)
	assert.Equal(t, "conteúdo-jpg", string(data))

	// já baixadas: nenhuma requisição nova
	require.NoError(t, store.Download(42, urls))
	assert.Equal(t, int64(2), atomic.LoadInt64(&requests))
}

func TestDownloadFailureIsNotFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ruim.jpg" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	store := NewStore(t.TempDir())
	err := store.Download(7, []string{srv.URL + "/ruim.jpg", srv.URL + "/boa.jpg"})
	require.NoError(t, err)

	// a imagem 0 falhou, então Local para nela; Has reflete a primeira
	assert.False(t, store.Has(7))
}

func TestRemove(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "img")
	}))
	defer srv.Close()

	store := NewStore(t.TempDir())
	require.NoError(t, store.Download(9, []string{srv.URL + "/1.jpg"}))
	require.True(t, store.Has(9))

	store.Remove(9)
	assert.False(t, store.Has(9))
	assert.Empty(t, store.Local(9))
}

func TestNoImages(t *testing.T) {
	store := NewStore(t.TempDir())
	require.NoError(t, store.Download(1, nil))
	assert.False(t, store.Has(1))
}
