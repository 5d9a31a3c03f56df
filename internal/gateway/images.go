package gateway

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"inkyspace/internal/access"
	"inkyspace/internal/models"
	"inkyspace/internal/notify"
)

// maxImageForm bounds a multipart form including its image.
const maxImageForm = 10 << 20

var errNoImageHost = errors.New("image uploads are not configured")

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// formValue returns the named field of a parsed multipart form and whether
// it was sent at all.
func formValue(form *multipart.Form, name string) (string, bool) {
	vs, ok := form.Value[name]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// uploadFormImage sends the file in field to the image host and returns its
// URL. A form without that file yields "".
func (s *Server) uploadFormImage(r *http.Request, field string) (string, error) {
	f, hdr, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer f.Close()
	if s.opts.Uploader == nil {
		return "", errNoImageHost
	}
	return s.opts.Uploader.Upload(r.Context(), hdr.Filename, f)
}

// spaceEdit carries only the fields the form sent.
type spaceEdit struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	CoverImage  *string `json:"coverImage"`
	IsPrivate   *bool   `json:"isPrivate"`
}

func (s *Server) readSpaceEdit(r *http.Request) (spaceEdit, error) {
	var e spaceEdit
	if !isMultipart(r) {
		return e, decodeForm(r, &e)
	}
	if err := r.ParseMultipartForm(maxImageForm); err != nil {
		return e, err
	}
	if v, ok := formValue(r.MultipartForm, "title"); ok {
		e.Title = &v
	}
	if v, ok := formValue(r.MultipartForm, "description"); ok {
		e.Description = &v
	}
	if v, ok := formValue(r.MultipartForm, "isPrivate"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return e, errors.New("isPrivate must be true or false")
		}
		e.IsPrivate = &b
	}
	url, err := s.uploadFormImage(r, "cover")
	if err != nil {
		return e, err
	}
	if url != "" {
		e.CoverImage = &url
	}
	return e, nil
}

// updateSpace edits one of the Owner's spaces from the space management
// panel, uploading a cover file first when one is attached.
func (s *Server) updateSpace(w http.ResponseWriter, r *http.Request) {
	v := visitFrom(r.Context())
	ctx := r.Context()
	cur, err := v.api.Spaces.Get(ctx, chi.URLParam(r, "spaceID"))
	if err != nil {
		s.fail(w, r, "settings", err)
		return
	}
	edit, err := s.readSpaceEdit(r)
	if err != nil {
		s.fail(w, r, "settings", err)
		return
	}
	data := models.UpdateSpaceData{
		SpaceID:     cur.SpaceID,
		Title:       cur.Title,
		Description: cur.Description,
		CoverImage:  cur.CoverImage,
		IsPrivate:   cur.IsPrivate,
	}
	if edit.Title != nil {
		data.Title = strings.TrimSpace(*edit.Title)
	}
	if edit.Description != nil {
		data.Description = *edit.Description
	}
	if edit.CoverImage != nil {
		data.CoverImage = *edit.CoverImage
	}
	if edit.IsPrivate != nil {
		data.IsPrivate = *edit.IsPrivate
	}
	if _, err := v.api.Spaces.Update(ctx, data); err != nil {
		s.fail(w, r, "settings", err)
		return
	}
	v.notes.Push(notify.Success, "Space updated.")
	s.renderPanel(w, r, v, access.SettingsSpaceManagement)
}

func (s *Server) readProfileUpdate(r *http.Request) (models.ProfileUpdate, error) {
	var u models.ProfileUpdate
	if !isMultipart(r) {
		return u, decodeForm(r, &u)
	}
	if err := r.ParseMultipartForm(maxImageForm); err != nil {
		return u, err
	}
	u.Name, _ = formValue(r.MultipartForm, "name")
	u.Bio, _ = formValue(r.MultipartForm, "bio")
	u.Avatar, _ = formValue(r.MultipartForm, "avatar")
	url, err := s.uploadFormImage(r, "avatarFile")
	if err != nil {
		return u, err
	}
	if url != "" {
		u.Avatar = url
	}
	return u, nil
}
