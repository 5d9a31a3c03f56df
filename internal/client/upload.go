package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"
)

// Uploader pushes images to the external image host. Every image is
// re-encoded to JPEG before upload so hosted assets share one format.
type Uploader struct {
	endpoint string
	preset   string
	quality  int
	http     *http.Client
}

func NewUploader(endpoint, preset string) *Uploader {
	return &Uploader{
		endpoint: strings.TrimSpace(endpoint),
		preset:   strings.TrimSpace(preset),
		quality:  85,
		http:     &http.Client{Timeout: 60 * time.Second},
	}
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	URL       string `json:"url"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Upload re-encodes src and returns the hosted URL.
func (u *Uploader) Upload(ctx context.Context, name string, src io.Reader) (string, error) {
	if u.endpoint == "" {
		return "", fmt.Errorf("image upload endpoint is not configured")
	}
	encoded, err := Reencode(src, u.quality)
	if err != nil {
		return "", err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if base == "" || base == "." {
		base = "image"
	}
	part, err := mw.CreateFormFile("file", base+".jpg")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(encoded); err != nil {
		return "", err
	}
	if u.preset != "" {
		if err := mw.WriteField("upload_preset", u.preset); err != nil {
			return "", err
		}
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := u.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: upload image: %v", ErrUnexpected, err)
	}
	defer resp.Body.Close()

	var out uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode upload response: %v", ErrUnexpected, err)
	}
	if resp.StatusCode >= 400 || out.Error != nil {
		msg := fmt.Sprintf("upload failed with status %d", resp.StatusCode)
		if out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		return "", &APIError{Status: resp.StatusCode, Message: msg}
	}
	if out.SecureURL != "" {
		return out.SecureURL, nil
	}
	if out.URL != "" {
		return out.URL, nil
	}
	return "", fmt.Errorf("%w: upload response has no url", ErrUnexpected)
}

// Reencode decodes any registered image format and writes it as JPEG.
// Transparent pixels are flattened onto white.
func Reencode(src io.Reader, quality int) ([]byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	bounds := img.Bounds()
	flat := image.NewRGBA(bounds)
	draw.Draw(flat, bounds, image.White, image.Point{}, draw.Src)
	draw.Draw(flat, bounds, img, bounds.Min, draw.Over)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flat, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
