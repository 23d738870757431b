package removebg_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"decant-boutique-backend/internal/removebg"
)

func newClient(baseURL string) *removebg.Client {
	client := removebg.NewClient(baseURL, "test-key")
	client.SetBackoffs(0, 0, 0)
	return client
}

func TestClient_RetryWithBackoff(t *testing.T) {
	client := newClient("https://api.test.com/v1.0/")

	callCount := 0
	err := client.RetryWithBackoff(func() error {
		callCount++
		if callCount < 3 {
			return assert.AnError
		}
		return nil
	}, 3)

	assert.NoError(t, err)
	assert.Equal(t, 3, callCount)
}

func TestClient_RetryWithBackoff_Exhausted(t *testing.T) {
	client := newClient("https://api.test.com/v1.0/")

	err := client.RetryWithBackoff(func() error {
		return assert.AnError
	}, 3)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 3 retries")
	assert.ErrorIs(t, err, assert.AnError)
}

func TestClient_Configured(t *testing.T) {
	assert.False(t, removebg.NewClient("https://api.remove.bg/v1.0", "").Configured())
	assert.True(t, newClient("https://api.remove.bg/v1.0").Configured())

	var nilClient *removebg.Client
	assert.False(t, nilClient.Configured())
}

func TestClient_RemoveBackground(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/removebg", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "auto", r.FormValue("size"))
		assert.Equal(t, "png", r.FormValue("format"))

		file, header, err := r.FormFile("image_file")
		require.NoError(t, err)
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "bottle.jpg", header.Filename)
		assert.Equal(t, "jpeg-bytes", string(data))

		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png-bytes"))
	}))
	defer server.Close()

	png, err := newClient(server.URL).RemoveBackground(context.Background(), "bottle.jpg", []byte("jpeg-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(png))
}

func TestClient_RemoveBackgroundFromURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "https://cdn.example.com/aventus.jpg", r.FormValue("image_url"))
		w.Write([]byte("png-bytes"))
	}))
	defer server.Close()

	png, err := newClient(server.URL).RemoveBackgroundFromURL(context.Background(), "https://cdn.example.com/aventus.jpg")
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(png))
}

func TestClient_RemoveBackgroundError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"errors":[{"title":"Insufficient credits","code":"insufficient_credits"}]}`))
	}))
	defer server.Close()

	_, err := newClient(server.URL).RemoveBackground(context.Background(), "bottle.jpg", []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 402: Insufficient credits")
}

func TestClient_FetchImage(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpeg-bytes"))
	}))
	defer server.Close()

	data, contentType, err := newClient("https://api.remove.bg/v1.0").FetchImage(context.Background(), server.URL+"/aventus.jpg")
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))
	assert.Equal(t, "image/jpeg", contentType)
	assert.Equal(t, 2, attempts)
}

func TestClient_FetchImageGivesUp(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, _, err := newClient("https://api.remove.bg/v1.0").FetchImage(context.Background(), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
}
