package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkyspace/internal/access"
	"inkyspace/internal/client"
	"inkyspace/internal/models"
)

// imageHost accepts JPEG uploads and hands back numbered URLs.
func imageHost(t *testing.T) *httptest.Server {
	t.Helper()
	var n atomic.Int32
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer f.Close()
		if _, err := jpeg.Decode(f); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		url := fmt.Sprintf("%s/img/%d-%s", srv.URL, n.Add(1), hdr.Filename)
		_ = json.NewEncoder(w).Encode(map[string]string{"secure_url": url})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// postMultipart sends fields plus one optional file as a browser form would.
func (b *browser) postMultipart(path string, fields map[string]string, fileField, fileName string, file []byte) pageResp {
	b.t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(b.t, mw.WriteField(k, v))
	}
	if fileField != "" {
		part, err := mw.CreateFormFile(fileField, fileName)
		require.NoError(b.t, err)
		_, err = part.Write(file)
		require.NoError(b.t, err)
	}
	require.NoError(b.t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, b.base+path, &body)
	require.NoError(b.t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := b.hc.Do(req)
	require.NoError(b.t, err)
	defer resp.Body.Close()
	out := pageResp{Status: resp.StatusCode, Location: resp.Header.Get("Location")}
	if resp.Header.Get("Content-Type") == "application/json" {
		require.NoError(b.t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return out
}

func TestSpaceCoverAndAvatarUploads(t *testing.T) {
	host := imageHost(t)
	env := setupWith(t, Options{Uploader: client.NewUploader(host.URL, "inky")})
	ctx := context.Background()
	owner := env.account(t, "Olga", "olga@example.com", models.RoleOwner)
	spaceID, err := owner.Spaces.Create(ctx, models.CreateSpaceData{Title: "Harbour", Description: "boats"})
	require.NoError(t, err)

	b := env.browser(t)
	b.login("olga@example.com")

	res := b.postMultipart("/settings/space-management/"+spaceID,
		map[string]string{"description": "boats and tides", "isPrivate": "true"},
		"cover", "harbour.png", pngBytes(t))
	require.Equal(t, http.StatusOK, res.Status, "%v", texts(res.Messages))
	assert.Contains(t, texts(res.Messages), "Space updated.")
	sm := decodeData[settingsModel](t, res)
	assert.Equal(t, access.SettingsSpaceManagement, sm.Panel)

	sp, err := owner.Spaces.Get(ctx, spaceID)
	require.NoError(t, err)
	assert.Equal(t, "Harbour", sp.Title)
	assert.Equal(t, "boats and tides", sp.Description)
	assert.True(t, sp.IsPrivate)
	assert.Equal(t, host.URL+"/img/1-harbour.jpg", sp.CoverImage)

	// A JSON edit touches only the fields it names.
	title := "Harbour Notes"
	res = b.post("/settings/space-management/"+spaceID, spaceEdit{Title: &title})
	require.Equal(t, http.StatusOK, res.Status, "%v", texts(res.Messages))
	sp, err = owner.Spaces.Get(ctx, spaceID)
	require.NoError(t, err)
	assert.Equal(t, "Harbour Notes", sp.Title)
	assert.Equal(t, host.URL+"/img/1-harbour.jpg", sp.CoverImage)
	assert.True(t, sp.IsPrivate)

	res = b.postMultipart("/settings/profile", map[string]string{"bio": "keeps the lights on"},
		"avatarFile", "olga.png", pngBytes(t))
	require.Equal(t, http.StatusOK, res.Status, "%v", texts(res.Messages))
	me, err := owner.Users.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, host.URL+"/img/2-olga.jpg", me.Avatar)
	assert.Equal(t, "keeps the lights on", me.Bio)
}

func TestUploadsRefusedWithoutImageHost(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	owner := env.account(t, "Olga", "olga@example.com", models.RoleOwner)
	spaceID, err := owner.Spaces.Create(ctx, models.CreateSpaceData{Title: "Harbour", Description: "boats"})
	require.NoError(t, err)

	b := env.browser(t)
	b.login("olga@example.com")
	res := b.postMultipart("/settings/space-management/"+spaceID, nil, "cover", "harbour.png", pngBytes(t))
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Contains(t, texts(res.Messages), errNoImageHost.Error())

	sp, err := owner.Spaces.Get(ctx, spaceID)
	require.NoError(t, err)
	assert.Empty(t, sp.CoverImage)

	// Readers cannot reach the space management panel at all.
	env.account(t, "Rae", "rae@example.com", models.RoleReader)
	rb := env.browser(t)
	rb.login("rae@example.com")
	res = rb.post("/settings/space-management/"+spaceID, spaceEdit{})
	assert.Equal(t, http.StatusFound, res.Status)
}
