package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-photos/pkg/simplephotos"
)

func TestPutHeadGet(t *testing.T) {
	ctx := context.Background()
	store := New("test-bucket")

	err := store.Put(ctx, simplephotos.PutParams{Key: "users/u1/a.jpg", ContentType: "image/jpeg"}, []byte("abc"))
	require.NoError(t, err)

	ok, err := store.HeadExists(ctx, "users/u1/a.jpg")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.HeadExists(ctx, "users/u1/missing.jpg")
	require.NoError(t, err)
	assert.False(t, ok)

	data, ok := store.Get("users/u1/a.jpg")
	require.True(t, ok)
	assert.Equal(t, []byte("abc"), data)
}

func TestDeleteIdempotent(t *testing.T) {
	ctx := context.Background()
	store := New("test-bucket")

	require.NoError(t, store.Put(ctx, simplephotos.PutParams{Key: "k"}, []byte("x")))
	require.NoError(t, store.DeleteOne(ctx, "k"))
	require.NoError(t, store.DeleteOne(ctx, "k"))

	result, err := store.DeleteMany(ctx, []string{"k", "never-existed"})
	require.NoError(t, err)
	assert.Len(t, result.Deleted, 2)
	assert.Empty(t, result.Errors)
}

func TestListByPrefixPagination(t *testing.T) {
	ctx := context.Background()
	store := New("test-bucket")

	for i := 0; i < 5; i++ {
		key := fmt.Sprintf("users/u1/photo_%d.jpg", i)
		require.NoError(t, store.Put(ctx, simplephotos.PutParams{Key: key}, []byte("x")))
	}
	require.NoError(t, store.Put(ctx, simplephotos.PutParams{Key: "users/u2/other.jpg"}, []byte("x")))

	page, err := store.ListByPrefix(ctx, "users/u1/", 3, "")
	require.NoError(t, err)
	assert.Len(t, page.Keys, 3)
	assert.True(t, page.IsTruncated)

	page2, err := store.ListByPrefix(ctx, "users/u1/", 3, page.NextContinuationToken)
	require.NoError(t, err)
	assert.Len(t, page2.Keys, 2)
	assert.False(t, page2.IsTruncated)
}

func TestPresignAndPublicURL(t *testing.T) {
	ctx := context.Background()
	store := New("test-bucket")

	require.NoError(t, store.Put(ctx, simplephotos.PutParams{Key: "users/u1/a.jpg"}, []byte("x")))

	url, err := store.Presign(ctx, "users/u1/a.jpg", time.Hour)
	require.NoError(t, err)
	assert.Contains(t, url, "X-Amz-Expires")

	_, err = store.Presign(ctx, "missing", time.Hour)
	assert.Error(t, err)

	assert.Equal(t, "https://test-bucket.s3.amazonaws.com/users/u1/a.jpg", store.PublicURL("users/u1/a.jpg"))
}
