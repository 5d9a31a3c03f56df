package client

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngFixture(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.NRGBA{R: 200, G: 10, B: 10, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestReencodeProducesJPEG(t *testing.T) {
	out, err := Reencode(bytes.NewReader(pngFixture(t)), 80)
	require.NoError(t, err)
	_, format, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

func TestReencodeRejectsGarbage(t *testing.T) {
	_, err := Reencode(bytes.NewReader([]byte("not an image")), 80)
	assert.Error(t, err)
}

func TestUploadSendsMultipartJPEG(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		assert.Equal(t, "inky", r.FormValue("upload_preset"))
		f, hdr, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer f.Close()
		assert.Equal(t, "cover.jpg", hdr.Filename)
		data, err := io.ReadAll(f)
		assert.NoError(t, err)
		_, err = jpeg.Decode(bytes.NewReader(data))
		assert.NoError(t, err)
		_ = json.NewEncoder(w).Encode(map[string]string{"secure_url": "https://img.example/cover.jpg"})
	}))
	defer srv.Close()

	u := NewUploader(srv.URL, "inky")
	got, err := u.Upload(context.Background(), "cover.png", bytes.NewReader(pngFixture(t)))
	require.NoError(t, err)
	assert.Equal(t, "https://img.example/cover.jpg", got)
}

func TestUploadReportsHostError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Upload preset not found"}}`))
	}))
	defer srv.Close()

	_, err := NewUploader(srv.URL, "missing").Upload(context.Background(), "a.png", bytes.NewReader(pngFixture(t)))
	apiErr, ok := IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "Upload preset not found", apiErr.Message)
}
