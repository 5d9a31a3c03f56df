package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"inkyspace/internal/api"
	"inkyspace/internal/auth"
	"inkyspace/internal/client"
	"inkyspace/internal/db"
	"inkyspace/internal/devapi"
	"inkyspace/internal/editor"
	"inkyspace/internal/models"
)

func setCLIEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("INKY_PASSWORD", "")

	cwd := t.TempDir()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(cwd); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(prev)
	})
	return home
}

func startAPI(t *testing.T) (string, *devapi.Outbox) {
	t.Helper()
	database, err := db.Init(context.Background(), filepath.Join(t.TempDir(), "inky.db"))
	if err != nil {
		t.Fatalf("init db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	log := logrus.New()
	log.SetOutput(io.Discard)
	outbox := &devapi.Outbox{}
	srv := httptest.NewServer(devapi.New(database, devapi.Options{
		Logger:   log,
		Mailer:   outbox,
		Sessions: auth.NewSessions("test-secret", time.Hour),
	}).Router())
	t.Cleanup(srv.Close)
	return srv.URL + devapi.Prefix, outbox
}

// inky runs one command line and returns what it printed.
func inky(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	err := cmd.Execute()
	return out.String(), err
}

func mustInky(t *testing.T, args ...string) string {
	t.Helper()
	out, err := inky(t, args...)
	if err != nil {
		t.Fatalf("inky %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func decodeJSON(t *testing.T, raw string, v any) {
	t.Helper()
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		t.Fatalf("decode %q: %v", raw, err)
	}
}

func TestCommandPresence(t *testing.T) {
	cmd := newRootCommand()
	for _, path := range [][]string{
		{"connect"}, {"login"}, {"explore"},
		{"spaces", "view"}, {"spaces", "subscribe"},
		{"threads", "new"}, {"threads", "reject"}, {"threads", "approve"},
		{"comments", "reply"}, {"editors", "accept"}, {"onboarding", "tags"},
	} {
		sub, _, err := cmd.Find(path)
		if err != nil || sub == nil || sub.Name() != path[len(path)-1] {
			t.Fatalf("missing command %v: %v", path, err)
		}
	}
	if f := cmd.PersistentFlags().Lookup("format"); f == nil || f.DefValue != "" {
		t.Fatalf("unexpected --format flag: %+v", f)
	}
}

func TestCommandsRequireConnection(t *testing.T) {
	setCLIEnv(t)
	_, err := inky(t, "explore")
	if err == nil || !strings.Contains(err.Error(), "not connected") {
		t.Fatalf("expected not connected error, got %v", err)
	}
}

func TestInvalidFormat(t *testing.T) {
	setCLIEnv(t)
	_, err := inky(t, "explore", "--format", "yaml")
	if err == nil || !strings.Contains(err.Error(), "invalid format") {
		t.Fatalf("expected invalid format error, got %v", err)
	}
}

func TestOwnerReviewsThreadFromTerminal(t *testing.T) {
	home := setCLIEnv(t)
	apiURL, outbox := startAPI(t)
	ctx := context.Background()

	if out := mustInky(t, "connect", apiURL); !strings.Contains(out, "connected to "+apiURL) {
		t.Fatalf("unexpected connect output: %q", out)
	}
	if _, err := os.Stat(filepath.Join(home, ".inky", "config.yaml")); err != nil {
		t.Fatalf("config not written: %v", err)
	}

	mustInky(t, "register", "--name", "Olga", "--email", "olga@example.com", "--password", "correct-horse", "--role", "owner")
	mail, ok := outbox.Last(devapi.MailVerify, "olga@example.com")
	if !ok {
		t.Fatalf("no verification mail")
	}
	mustInky(t, "verify-email", mail.Token)
	if _, err := inky(t, "login", "olga@example.com"); err == nil || !strings.Contains(err.Error(), "--password") {
		t.Fatalf("expected missing password error, got %v", err)
	}
	if out := mustInky(t, "login", "olga@example.com", "--password", "correct-horse"); !strings.Contains(out, "logged in as Olga") {
		t.Fatalf("unexpected login output: %q", out)
	}

	var me map[string]any
	decodeJSON(t, mustInky(t, "whoami", "--format", "json"), &me)
	if me["role"] != "owner" || me["name"] != "Olga" {
		t.Fatalf("unexpected whoami: %v", me)
	}

	var created models.CreatedSpace
	decodeJSON(t, mustInky(t, "spaces", "create", "--title", "Field Notes", "--description", "notes", "--format", "json"), &created)
	if created.SpaceID == "" {
		t.Fatalf("expected space id")
	}

	// An Editor accepts the invitation through the SDK and submits a draft.
	mustInky(t, "editors", "invite", "ed@example.com")
	invite, ok := outbox.Last(devapi.MailInvite, "ed@example.com")
	if !ok {
		t.Fatalf("no invite mail")
	}
	hc, err := client.New(apiURL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	ed := api.New(hc)
	if err := ed.Invites.Accept(ctx, invite.Token, models.AcceptInviteData{Name: "Ed", Password: "editor-pass"}); err != nil {
		t.Fatalf("accept: %v", err)
	}
	content, err := editor.FromMarkdown("# Tides\n\nLow water at **noon**.", time.Now())
	if err != nil {
		t.Fatalf("markdown: %v", err)
	}
	threadID, err := ed.Threads.Create(ctx, models.ThreadFormData{Title: "Tide Tables", Content: content, SpaceID: created.SpaceID})
	if err != nil {
		t.Fatalf("create thread: %v", err)
	}
	if err := ed.Threads.Submit(ctx, threadID); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if out := mustInky(t, "threads", "pending", "--quiet"); strings.TrimSpace(out) != threadID {
		t.Fatalf("unexpected pending ids: %q", out)
	}
	if _, err := inky(t, "threads", "reject", threadID); err == nil || !strings.Contains(err.Error(), "rejection reason") {
		t.Fatalf("expected rejection reason error, got %v", err)
	}
	var status map[string]any
	decodeJSON(t, mustInky(t, "threads", "reject", threadID, "--reason", "Cite a source", "--format", "json"), &status)
	if status["status"] != "R" || status["rejectionReason"] != "Cite a source" {
		t.Fatalf("unexpected reject result: %v", status)
	}

	if err := ed.Threads.Submit(ctx, threadID); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	decodeJSON(t, mustInky(t, "threads", "approve", threadID, "--format", "json"), &status)
	if status["statusLabel"] != "Published" {
		t.Fatalf("unexpected approve result: %v", status)
	}

	mustInky(t, "comments", "add", threadID, "Lovely read")
	if out := mustInky(t, "comments", "list", threadID, "--format", "plain"); !strings.Contains(out, "Olga Lovely read") {
		t.Fatalf("unexpected comments: %q", out)
	}

	out := mustInky(t, "threads", "read", threadID)
	for _, want := range []string{"# Tide Tables", "Field Notes · Ed · Published", "Low water at **noon**.", "Olga (0 replies): Lovely read"} {
		if !strings.Contains(out, want) {
			t.Fatalf("thread output missing %q:\n%s", want, out)
		}
	}

	var view map[string]any
	decodeJSON(t, mustInky(t, "spaces", "view", created.SpaceID, "--format", "json"), &view)
	if view["access"] != "allow" {
		t.Fatalf("unexpected space view: %v", view)
	}

	mustInky(t, "logout")
	if _, err := inky(t, "whoami"); err == nil {
		t.Fatalf("expected whoami to fail after logout")
	}
	if out := mustInky(t, "explore", "tide", "--quiet"); strings.TrimSpace(out) != threadID {
		t.Fatalf("unexpected explore ids: %q", out)
	}
}

// startImageHost accepts multipart uploads and answers with a hosted URL
// per upload.
func startImageHost(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()
	var presets []string
	n := 0
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer f.Close()
		if _, format, err := image.Decode(f); err != nil || format != "jpeg" {
			http.Error(w, "expected jpeg", http.StatusBadRequest)
			return
		}
		n++
		presets = append(presets, r.FormValue("upload_preset"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"secure_url": srv.URL + "/img/" + strings.TrimSuffix(hdr.Filename, ".jpg") + "-" + string(rune('0'+n)) + ".jpg",
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &presets
}

func writePNG(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, color.NRGBA{R: 20, G: 120, B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, buf.Bytes(), 0o600); err != nil {
		t.Fatalf("write png: %v", err)
	}
	return p
}

func TestImagesAreUploadedThenSaved(t *testing.T) {
	setCLIEnv(t)
	t.Setenv("INKY_UPLOAD_URL", "")
	t.Setenv("INKY_UPLOAD_PRESET", "")
	apiURL, outbox := startAPI(t)
	host, presets := startImageHost(t)
	dir := t.TempDir()
	cover := writePNG(t, dir, "harbour.png")
	avatar := writePNG(t, dir, "olga.png")

	mustInky(t, "connect", apiURL)
	mustInky(t, "register", "--name", "Olga", "--email", "olga@example.com", "--password", "correct-horse", "--role", "owner")
	mail, _ := outbox.Last(devapi.MailVerify, "olga@example.com")
	mustInky(t, "verify-email", mail.Token)
	mustInky(t, "login", "olga@example.com", "--password", "correct-horse")

	if _, err := inky(t, "spaces", "create", "--title", "Harbour", "--cover-file", cover); err == nil || !strings.Contains(err.Error(), "inky uploads") {
		t.Fatalf("expected missing image host error, got %v", err)
	}
	mustInky(t, "uploads", "--endpoint", host.URL+"/upload", "--preset", "inky")

	var created models.CreatedSpace
	decodeJSON(t, mustInky(t, "spaces", "create", "--title", "Harbour", "--cover-file", cover, "--format", "json"), &created)

	if _, err := inky(t, "spaces", "update", created.SpaceID); err == nil || !strings.Contains(err.Error(), "nothing to update") {
		t.Fatalf("expected nothing to update error, got %v", err)
	}
	var sp models.Space
	decodeJSON(t, mustInky(t, "spaces", "update", created.SpaceID, "--description", "Boats", "--private", "--cover-file", cover, "--format", "json"), &sp)
	if sp.Title != "Harbour" || sp.Description != "Boats" || !sp.IsPrivate {
		t.Fatalf("unexpected updated space: %+v", sp)
	}
	if sp.CoverImage != host.URL+"/img/harbour-2.jpg" {
		t.Fatalf("cover not replaced by the second upload: %q", sp.CoverImage)
	}

	var prof models.Profile
	decodeJSON(t, mustInky(t, "profile", "update", "--avatar-file", avatar, "--format", "json"), &prof)
	if prof.Avatar != host.URL+"/img/olga-3.jpg" {
		t.Fatalf("unexpected avatar: %q", prof.Avatar)
	}

	// The invited Editor drafts from a generated outline with a cover.
	mustInky(t, "editors", "invite", "ed@example.com")
	invite, _ := outbox.Last(devapi.MailInvite, "ed@example.com")
	mustInky(t, "logout")
	mustInky(t, "editors", "accept", invite.Token, "--name", "Ed", "--password", "editor-pass")

	if _, err := inky(t, "threads", "new", "--title", "Tides", "--space", created.SpaceID, "--generate", "  "); err == nil || !strings.Contains(err.Error(), "describe the thread") {
		t.Fatalf("expected blank prompt error, got %v", err)
	}
	if _, err := inky(t, "threads", "new", "--title", "Tides", "--space", created.SpaceID, "--generate", "tides", "--tone", "grumpy"); err == nil || !strings.Contains(err.Error(), "unknown tone") {
		t.Fatalf("expected unknown tone error, got %v", err)
	}
	var thread models.CreatedThread
	decodeJSON(t, mustInky(t, "threads", "new", "--title", "Tides", "--space", created.SpaceID,
		"--generate", "tide tables for beginners", "--tone", "educational", "--cover-file", cover, "--format", "json"), &thread)

	var edited models.Thread
	decodeJSON(t, mustInky(t, "threads", "edit", thread.ThreadID, "--title", "Tide Tables", "--format", "json"), &edited)
	if edited.Title != "Tide Tables" || edited.CoverImage != host.URL+"/img/harbour-4.jpg" {
		t.Fatalf("unexpected edited thread: %+v", edited)
	}
	doc, err := editor.Decode(edited.Content)
	if err != nil {
		t.Fatalf("decode content: %v", err)
	}
	md := editor.Markdown(doc)
	for _, want := range []string{"# Tide tables for beginners", "Tone: educational", "tide tables for beginners"} {
		if !strings.Contains(md, want) {
			t.Fatalf("generated draft missing %q:\n%s", want, md)
		}
	}
	// The Owner may approve the thread but not rewrite it.
	mustInky(t, "logout")
	mustInky(t, "login", "olga@example.com", "--password", "correct-horse")
	if _, err := inky(t, "threads", "edit", thread.ThreadID, "--title", "Hijacked"); err == nil {
		t.Fatalf("expected the Owner's edit to be refused")
	}
	for i, p := range *presets {
		if p != "inky" {
			t.Fatalf("upload %d sent preset %q", i, p)
		}
	}
}

func TestCheckEditableNamesTheEditor(t *testing.T) {
	ed := models.Viewer{UserID: "ed", Role: models.RoleEditor}
	for _, status := range []models.ThreadStatus{models.StatusDraft, models.StatusAwaiting, models.StatusRevision, models.StatusPublished} {
		th := models.Thread{ThreadID: "t1", EditorID: "ed", OwnerID: "olga", Status: status}
		if err := checkEditable(th, ed); err != nil {
			t.Fatalf("editor refused on %s thread: %v", status, err)
		}
		for _, other := range []models.Viewer{
			{UserID: "olga", Role: models.RoleOwner},
			{UserID: "someone", Role: models.RoleEditor},
			{UserID: "rae", Role: models.RoleReader},
		} {
			err := checkEditable(th, other)
			if err != errNotThreadEditor || err.Error() != "only the thread's editor can edit it" {
				t.Fatalf("%s on %s thread: got %v", other.UserID, status, err)
			}
		}
	}
}
