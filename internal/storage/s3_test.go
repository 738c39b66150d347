package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestS3Store(t *testing.T, handler http.HandlerFunc) *S3Store {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := s3.New(s3.Options{
		Region:       "us-east-1",
		Credentials:  credentials.NewStaticCredentialsProvider("key", "secret", ""),
		BaseEndpoint: aws.String(srv.URL),
		UsePathStyle: true,
	})

	return newS3StoreWithClient(client, S3Options{Bucket: "media", Endpoint: srv.URL})
}

func TestS3DeleteBatches(t *testing.T) {
	var (
		mu      sync.Mutex
		batches []int
	)

	store := newTestS3Store(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !r.URL.Query().Has("delete") {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		body, _ := io.ReadAll(r.Body)

		mu.Lock()
		batches = append(batches, strings.Count(string(body), "<Key>"))
		first := len(batches) == 1
		mu.Unlock()

		w.Header().Set("Content-Type", "application/xml")
		if first {
			fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?>
<DeleteResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">
  <Error><Key>k-0007</Key><Code>AccessDenied</Code><Message>Access Denied</Message></Error>
</DeleteResult>`)
			return
		}
		fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?>
<DeleteResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/"></DeleteResult>`)
	})

	paths := make([]string, 1500)
	for i := range paths {
		paths[i] = fmt.Sprintf("k-%04d", i)
	}

	err := store.Delete(context.Background(), paths)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error deleting k-0007: Access Denied")

	assert.Equal(t, []int{1000, 500}, batches)
}

func TestS3DeleteNothing(t *testing.T) {
	store := newTestS3Store(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s %s", r.Method, r.URL)
	})

	assert.NoError(t, store.Delete(context.Background(), nil))
}

func TestS3Exists(t *testing.T) {
	store := newTestS3Store(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		switch r.URL.Path {
		case "/media/present.jpg":
			w.Header().Set("Content-Length", "3")
			w.Header().Set("Content-Type", "image/jpeg")
			w.WriteHeader(http.StatusOK)
		case "/media/forbidden.jpg":
			w.WriteHeader(http.StatusForbidden)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	t.Run("Present", func(t *testing.T) {
		ok, err := store.Exists(ctx, "present.jpg")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("Missing is not an error", func(t *testing.T) {
		ok, err := store.Exists(ctx, "missing.jpg")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Other failures are errors", func(t *testing.T) {
		ok, err := store.Exists(ctx, "forbidden.jpg")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error checking forbidden.jpg")
		assert.False(t, ok)
	})
}

func TestS3Upload(t *testing.T) {
	var (
		gotPath string
		gotType string
	)

	store := newTestS3Store(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		_, _ = io.Copy(io.Discard, r.Body)
		w.Header().Set("ETag", `"abc"`)
		w.WriteHeader(http.StatusOK)
	})

	err := store.Upload(context.Background(), "u1/a.jpg", strings.NewReader("jpg"), 3, "image/jpeg")
	require.NoError(t, err)

	assert.Equal(t, "/media/u1/a.jpg", gotPath)
	assert.Equal(t, "image/jpeg", gotType)
	assert.True(t, strings.HasSuffix(store.PublicURL("u1/a.jpg"), "/media/u1/a.jpg"))
}
