package api_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-photos/pkg/simplephotos"
	"github.com/tendant/simple-photos/pkg/simplephotos/api"
	memoryrepo "github.com/tendant/simple-photos/pkg/simplephotos/repo/memory"
	memorystorage "github.com/tendant/simple-photos/pkg/simplephotos/storage/memory"
)

func newTestServer(t *testing.T) (*httptest.Server, simplephotos.Service) {
	t.Helper()

	svc, err := simplephotos.New(
		simplephotos.WithRepository(memoryrepo.New()),
		simplephotos.WithObjectStore(memorystorage.New("test-bucket")),
	)
	require.NoError(t, err)

	batch := api.NewBatchHandler(svc)
	batch.TestModeAllowed = true

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(api.RequireAuth(api.HeaderVerifier{}))
		r.Mount("/users", api.NewPhotoHandler(svc).Routes())
		r.Mount("/batch", batch.Routes())
	})
	r.Mount("/nicknames", api.NewNicknameHandler(svc).Routes())

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server, svc
}

func testImageBase64(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: 120, G: 40, B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func doJSON(t *testing.T, method, url, caller string, body any) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if caller != "" {
		req.Header.Set("X-User-ID", caller)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func uploadPhoto(t *testing.T, server *httptest.Server, userID, nickname string) {
	t.Helper()
	resp := doJSON(t, http.MethodPost, server.URL+"/users/"+userID+"/photo", userID, map[string]string{
		"image":    testImageBase64(t),
		"nickname": nickname,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUploadPhotoEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/users/user-1/photo", "user-1", map[string]string{
		"image":    "data:image/jpeg;base64," + testImageBase64(t),
		"nickname": "alice",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		UserID        string            `json:"user_id"`
		Images        map[string]string `json:"images"`
		SizeReduction string            `json:"size_reduction"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, "user-1", body.UserID)
	assert.Len(t, body.Images, 3)
	assert.NotEmpty(t, body.SizeReduction)
}

func TestUploadPhotoEndpointRejectsBadBase64(t *testing.T) {
	server, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/users/user-1/photo", "user-1", map[string]string{
		"image": "!!! not base64 !!!",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUploadPhotoEndpointRequiresAuth(t *testing.T) {
	server, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/users/user-1/photo", "", map[string]string{
		"image": testImageBase64(t),
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestUploadPhotoEndpointForbidsOtherUsers(t *testing.T) {
	server, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/users/user-1/photo", "intruder", map[string]string{
		"image":    testImageBase64(t),
		"nickname": "alice",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestUploadPhotoEndpointNicknameConflict(t *testing.T) {
	server, _ := newTestServer(t)

	uploadPhoto(t, server, "user-1", "alice")

	resp := doJSON(t, http.MethodPost, server.URL+"/users/user-2/photo", "user-2", map[string]string{
		"image":    testImageBase64(t),
		"nickname": "alice",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestGetUserEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	uploadPhoto(t, server, "user-1", "alice")

	resp := doJSON(t, http.MethodGet, server.URL+"/users/user-1", "user-2", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Nickname  string            `json:"nickname"`
		HasPhotos bool              `json:"has_photos"`
		Images    map[string]string `json:"images"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, "alice", body.Nickname)
	assert.True(t, body.HasPhotos)
	assert.Len(t, body.Images, 3)

	missing := doJSON(t, http.MethodGet, server.URL+"/users/ghost", "user-2", nil)
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestDeletePhotoEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	uploadPhoto(t, server, "user-1", "alice")

	resp := doJSON(t, http.MethodDelete, server.URL+"/users/user-1/photo", "user-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		DeletedCount int `json:"deleted_count"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, 3, body.DeletedCount)

	// Idempotent: deleting again still succeeds.
	again := doJSON(t, http.MethodDelete, server.URL+"/users/user-1/photo", "user-1", nil)
	assert.Equal(t, http.StatusOK, again.StatusCode)
}

func TestRefreshPhotoURLsEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	uploadPhoto(t, server, "user-1", "alice")

	resp := doJSON(t, http.MethodGet, server.URL+"/users/user-1/photo/urls", "user-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Images map[string]string `json:"images"`
	}
	decodeBody(t, resp, &body)
	assert.Len(t, body.Images, 3)
}

func TestRefreshPhotoURLsEndpointNoPhotos(t *testing.T) {
	server, svc := newTestServer(t)

	// A user whose photos were already removed has nothing to refresh.
	uploadPhoto(t, server, "user-1", "alice")
	_, err := svc.DeletePhoto(context.Background(), simplephotos.DeletePhotoRequest{
		UserID: "user-1", CallerID: "user-1",
	})
	require.NoError(t, err)

	resp := doJSON(t, http.MethodGet, server.URL+"/users/user-1/photo/urls", "user-1", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUploadPhotoEndpointInvalidNickname(t *testing.T) {
	server, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/users/user-1/photo", "user-1", map[string]string{
		"image":    testImageBase64(t),
		"nickname": "x",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body struct {
		Code string `json:"error_code"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, "VALIDATION_ERROR", body.Code)
}

func TestUploadPhotoEndpointTooLarge(t *testing.T) {
	server, _ := newTestServer(t)

	// An image payload over the size limit is a client error, reported in
	// the same shape as the other validation failures.
	oversized := base64.StdEncoding.EncodeToString(make([]byte, simplephotos.DefaultMaxImageBytes+1))
	resp := doJSON(t, http.MethodPost, server.URL+"/users/user-1/photo", "user-1", map[string]string{
		"image":    oversized,
		"nickname": "alice",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body struct {
		Code string `json:"error_code"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, "VALIDATION_ERROR", body.Code)
}

func TestDeleteUserEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	uploadPhoto(t, server, "user-1", "alice")

	noConfirm := doJSON(t, http.MethodDelete, server.URL+"/users/user-1", "user-1", nil)
	assert.Equal(t, http.StatusBadRequest, noConfirm.StatusCode)

	resp := doJSON(t, http.MethodDelete, server.URL+"/users/user-1?confirm=true", "user-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	gone := doJSON(t, http.MethodGet, server.URL+"/users/user-1", "user-1", nil)
	assert.Equal(t, http.StatusNotFound, gone.StatusCode)
}

func TestNicknameCheckEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	uploadPhoto(t, server, "user-1", "alice")

	resp := doJSON(t, http.MethodGet, server.URL+"/nicknames/check?nickname=alice", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Valid     bool `json:"valid"`
		Available bool `json:"available"`
	}
	decodeBody(t, resp, &body)
	assert.True(t, body.Valid)
	assert.False(t, body.Available)

	free := doJSON(t, http.MethodGet, server.URL+"/nicknames/check?nickname=bob", "", nil)
	require.Equal(t, http.StatusOK, free.StatusCode)
	decodeBody(t, free, &body)
	assert.True(t, body.Valid)
	assert.True(t, body.Available)

	missingParam := doJSON(t, http.MethodGet, server.URL+"/nicknames/check", "", nil)
	assert.Equal(t, http.StatusBadRequest, missingParam.StatusCode)
}

func TestBatchDeleteEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	for i := 1; i <= 3; i++ {
		uploadPhoto(t, server, fmt.Sprintf("user-%d", i), fmt.Sprintf("nick-%d", i))
	}

	resp := doJSON(t, http.MethodPost, server.URL+"/batch/delete", "operator", map[string]any{
		"user_ids":  []string{"user-1", "user-2", "user-3"},
		"confirm":   true,
		"test_mode": true,
		"reason":    "account closure sweep",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Results  []simplephotos.DeletionOutcome `json:"results"`
		Summary  simplephotos.BatchSummary      `json:"summary"`
		Metadata struct {
			DeletionReason string `json:"deletion_reason"`
			TestMode       bool   `json:"test_mode"`
		} `json:"metadata"`
	}
	decodeBody(t, resp, &body)
	assert.Len(t, body.Results, 3)
	assert.Equal(t, 3, body.Summary.SuccessfulCount)
	assert.Equal(t, 9, body.Summary.TotalPhotosDeleted)
	assert.Equal(t, "account closure sweep", body.Metadata.DeletionReason)
	assert.True(t, body.Metadata.TestMode)
}

func TestBatchDeleteEndpointPartial(t *testing.T) {
	server, _ := newTestServer(t)

	uploadPhoto(t, server, "user-1", "alice")

	resp := doJSON(t, http.MethodPost, server.URL+"/batch/delete", "operator", map[string]any{
		"user_ids":  []string{"user-1", "ghost"},
		"confirm":   true,
		"test_mode": true,
	})
	assert.Equal(t, http.StatusMultiStatus, resp.StatusCode)

	// The reason defaults when the request leaves it out.
	var body struct {
		Metadata struct {
			DeletionReason string `json:"deletion_reason"`
		} `json:"metadata"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, "Batch deletion requested", body.Metadata.DeletionReason)
}

func TestBatchDeleteEndpointAllFail(t *testing.T) {
	server, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/batch/delete", "operator", map[string]any{
		"user_ids":  []string{"ghost-1", "ghost-2"},
		"confirm":   true,
		"test_mode": true,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBatchDeleteEndpointRejectsUnconfirmed(t *testing.T) {
	server, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/batch/delete", "operator", map[string]any{
		"user_ids": []string{"user-1"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
