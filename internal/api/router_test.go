package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/timmy/devmeme/internal/api/handler"
	"github.com/timmy/devmeme/internal/compositor"
	"github.com/timmy/devmeme/internal/config"
	"github.com/timmy/devmeme/internal/domain"
	"github.com/timmy/devmeme/internal/repository"
	"github.com/timmy/devmeme/internal/service"
)

type stubContent struct {
	err error
}

func (s *stubContent) GenerateMemeContent(ctx context.Context, topic, templateContext string) (*domain.MemeContent, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.MemeContent{TopText: "when " + topic, BottomText: "it works", ImagePrompt: "a desk"}, nil
}

func (s *stubContent) GenerateMemeImage(ctx context.Context, prompt string) (string, error) {
	return pngDataURL(64, 48), nil
}

func pngBytes(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

func pngDataURL(w, h int) string {
	return compositor.DataURL("image/png", pngBytes(w, h))
}

type testServer struct {
	t       *testing.T
	router  http.Handler
	content *stubContent
}

func newTestServer(t *testing.T, templates ...domain.MemeTemplate) *testServer {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{
			Mode:              "test",
			GenerationTimeout: 5 * time.Second,
			CORS:              config.CORSConfig{AllowAllOrigins: true},
		},
		Database: config.DatabaseConfig{
			Driver: "sqlite",
			DSN:    "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared",
		},
		Render: config.RenderConfig{MaxImageBytes: 1 << 20},
	}

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		t.Fatalf("InitDB() error = %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	font, _, err := compositor.LoadFont()
	if err != nil {
		t.Fatalf("LoadFont() error = %v", err)
	}
	loader := compositor.NewLoader(&compositor.LoaderConfig{MaxImageBytes: cfg.Render.MaxImageBytes}, nil)
	exporter := compositor.NewExporter(compositor.New(loader), font)

	content := &stubContent{}
	history := repository.NewHistoryRepository(db)
	orch := service.NewOrchestrator(content, history, &service.OrchestratorConfig{
		Templates: templates,
	})

	return &testServer{
		t:       t,
		content: content,
		router: SetupRouter(cfg, &Dependencies{
			Orchestrator: orch,
			Exporter:     exporter,
			HealthChecks: map[string]handler.HealthCheck{
				"history": func(ctx context.Context) error {
					_, err := history.Count(ctx)
					return err
				},
			},
		}),
	}
}

func (s *testServer) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var r *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			s.t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(b)
	} else {
		r = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) upload(data []byte) *httptest.ResponseRecorder {
	s.t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "cat.png")
	if err != nil {
		s.t.Fatalf("CreateFormFile: %v", err)
	}
	fw.Write(data)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/templates/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func historyLen(t *testing.T, s *testServer) int {
	t.Helper()
	var resp struct {
		Total int `json:"total"`
	}
	decode(t, s.do(http.MethodGet, "/api/v1/history", nil), &resp)
	return resp.Total
}

func TestRouter_HealthAndTopics(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("GET /health = %d", w.Code)
	}
	var health struct {
		Status       string            `json:"status"`
		Dependencies map[string]string `json:"dependencies"`
	}
	decode(t, w, &health)
	if health.Status != "ok" || health.Dependencies["history"] != "ok" {
		t.Errorf("health = %+v", health)
	}

	var topics struct {
		Topics []string `json:"topics"`
	}
	decode(t, s.do(http.MethodGet, "/api/v1/topics", nil), &topics)
	if len(topics.Topics) != 5 {
		t.Errorf("topics = %v, want 5", topics.Topics)
	}

	var templates struct {
		Templates []domain.MemeTemplate `json:"templates"`
	}
	decode(t, s.do(http.MethodGet, "/api/v1/templates", nil), &templates)
	if len(templates.Templates) != len(domain.Catalog) {
		t.Errorf("templates = %d, want %d", len(templates.Templates), len(domain.Catalog))
	}
}

func TestRouter_ValidationLeavesHistoryUnchanged(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/v1/generate", GenerateBody{Topic: "   "})
	if w.Code != http.StatusBadRequest {
		t.Errorf("blank topic = %d, want 400", w.Code)
	}

	if w := s.do(http.MethodPut, "/api/v1/session/mode", map[string]string{"mode": "template"}); w.Code != http.StatusOK {
		t.Fatalf("set mode = %d: %s", w.Code, w.Body.String())
	}
	w = s.do(http.MethodPost, "/api/v1/generate", GenerateBody{Topic: "test"})
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "Please select a template first.") {
		t.Errorf("no template = %d %s", w.Code, w.Body.String())
	}

	var session service.Session
	decode(t, s.do(http.MethodGet, "/api/v1/session", nil), &session)
	if session.State != domain.GenerationIdle {
		t.Errorf("state = %s, want idle", session.State)
	}
	if n := historyLen(t, s); n != 0 {
		t.Errorf("history = %d, want 0", n)
	}

	if w := s.do(http.MethodPut, "/api/v1/session/mode", map[string]string{"mode": "video"}); w.Code != http.StatusBadRequest {
		t.Errorf("unknown mode = %d, want 400", w.Code)
	}
	if w := s.do(http.MethodPut, "/api/v1/session/template", map[string]string{"template_id": "nope"}); w.Code != http.StatusNotFound {
		t.Errorf("unknown template = %d, want 404", w.Code)
	}
}

// GenerateBody mirrors the generate request payload.
type GenerateBody struct {
	Topic string `json:"topic"`
}

func TestRouter_UploadGenerateDownload(t *testing.T) {
	s := newTestServer(t)

	w := s.upload(pngBytes(120, 80))
	if w.Code != http.StatusOK {
		t.Fatalf("upload = %d: %s", w.Code, w.Body.String())
	}
	var tmpl domain.MemeTemplate
	decode(t, w, &tmpl)
	if tmpl.ID != domain.CustomTemplateID || !strings.HasPrefix(tmpl.URL, "data:image/png;base64,") {
		t.Fatalf("uploaded template = %+v", tmpl)
	}

	s.do(http.MethodPut, "/api/v1/session/mode", map[string]string{"mode": "template"})
	s.do(http.MethodPut, "/api/v1/session/description", map[string]string{"description": "my cat"})

	w = s.do(http.MethodPost, "/api/v1/generate", GenerateBody{Topic: "Friday deploy"})
	if w.Code != http.StatusCreated {
		t.Fatalf("generate = %d: %s", w.Code, w.Body.String())
	}
	var meme domain.GeneratedMeme
	decode(t, w, &meme)
	if meme.TopText != "when Friday deploy" || meme.ImageURL != tmpl.URL {
		t.Errorf("meme = %+v", meme)
	}

	w = s.do(http.MethodGet, "/api/v1/history/"+meme.ID+"/download", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("download = %d: %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Content-Disposition"); !strings.Contains(got, "dev-meme-") || !strings.HasPrefix(got, "attachment") {
		t.Errorf("Content-Disposition = %q", got)
	}
	img, err := png.Decode(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatalf("download is not a PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 120 || b.Dy() != 80 {
		t.Errorf("download is %dx%d, want 120x80", b.Dx(), b.Dy())
	}
}

func TestRouter_HistoryLifecycle(t *testing.T) {
	s := newTestServer(t)

	var ids []string
	for _, topic := range []string{"one", "two", "three"} {
		w := s.do(http.MethodPost, "/api/v1/generate", GenerateBody{Topic: topic})
		if w.Code != http.StatusCreated {
			t.Fatalf("generate %s = %d: %s", topic, w.Code, w.Body.String())
		}
		var m domain.GeneratedMeme
		decode(t, w, &m)
		ids = append(ids, m.ID)
	}

	if w := s.do(http.MethodPost, "/api/v1/history/"+ids[0]+"/select", nil); w.Code != http.StatusOK {
		t.Errorf("select = %d", w.Code)
	}
	var session service.Session
	decode(t, s.do(http.MethodGet, "/api/v1/session", nil), &session)
	if session.Topic != "one" || session.ActiveMeme == nil || session.ActiveMeme.ID != ids[0] {
		t.Errorf("session after select = %+v", session)
	}

	if w := s.do(http.MethodDelete, "/api/v1/history/"+ids[1], nil); w.Code != http.StatusNoContent {
		t.Errorf("delete = %d", w.Code)
	}
	if w := s.do(http.MethodDelete, "/api/v1/history/"+ids[1], nil); w.Code != http.StatusNotFound {
		t.Errorf("second delete = %d, want 404", w.Code)
	}

	var list struct {
		Memes []domain.GeneratedMeme `json:"memes"`
	}
	decode(t, s.do(http.MethodGet, "/api/v1/history", nil), &list)
	if len(list.Memes) != 2 || list.Memes[0].ID != ids[2] || list.Memes[1].ID != ids[0] {
		t.Errorf("history = %+v", list.Memes)
	}

	if w := s.do(http.MethodPost, "/api/v1/regenerate", nil); w.Code != http.StatusCreated {
		t.Errorf("regenerate = %d: %s", w.Code, w.Body.String())
	}
	if n := historyLen(t, s); n != 3 {
		t.Errorf("history after regenerate = %d, want 3", n)
	}
}

func TestRouter_ServiceErrorIsBadGateway(t *testing.T) {
	s := newTestServer(t)
	s.content.err = errors.New("quota exceeded")

	w := s.do(http.MethodPost, "/api/v1/generate", GenerateBody{Topic: "deadlines"})
	if w.Code != http.StatusBadGateway || !strings.Contains(w.Body.String(), "quota exceeded") {
		t.Errorf("generate = %d %s, want 502", w.Code, w.Body.String())
	}

	var session service.Session
	decode(t, s.do(http.MethodGet, "/api/v1/session", nil), &session)
	if session.State != domain.GenerationError || session.Error == "" {
		t.Errorf("session = %+v, want error state with message", session)
	}
}

func TestRouter_Render(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/v1/render?format=data_url", map[string]string{
		"image_url":   pngDataURL(90, 60),
		"top_text":    "top",
		"bottom_text": "bottom",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("render = %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Filename string `json:"filename"`
		DataURL  string `json:"data_url"`
		Width    int    `json:"width"`
		Height   int    `json:"height"`
	}
	decode(t, w, &resp)
	if resp.Filename != compositor.DefaultFileName || resp.Width != 90 || resp.Height != 60 {
		t.Errorf("render response = %+v", resp)
	}
	if !strings.HasPrefix(resp.DataURL, "data:image/png;base64,") {
		t.Errorf("data URL prefix = %.30s", resp.DataURL)
	}

	w = s.do(http.MethodPost, "/api/v1/render", map[string]string{"image_url": "data:image/png;base64,bm90IGFuIGltYWdl"})
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("render of broken image = %d, want 422", w.Code)
	}

	w = s.do(http.MethodPost, "/api/v1/render", map[string]string{"top_text": "no image"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("render without image = %d, want 400", w.Code)
	}
}

func TestRouter_RenderOnlyLoadsOfferedImages(t *testing.T) {
	var hits atomic.Int32
	data := pngBytes(30, 20)
	host := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "image/png")
		w.Write(data)
	}))
	defer host.Close()

	s := newTestServer(t, domain.MemeTemplate{
		ID:          "office",
		Name:        "Office",
		URL:         host.URL + "/office.png",
		Description: "An office",
	})

	rejected := []string{
		host.URL + "/internal.png",
		"http://169.254.169.254/latest/meta-data/",
		"s3://templates/office.png",
		"/etc/passwd",
	}
	for _, src := range rejected {
		w := s.do(http.MethodPost, "/api/v1/render", map[string]string{"image_url": src})
		if w.Code != http.StatusBadRequest {
			t.Errorf("render of %q = %d, want 400", src, w.Code)
		}
	}
	if n := hits.Load(); n != 0 {
		t.Fatalf("image host was contacted %d times for rejected sources", n)
	}

	w := s.do(http.MethodPost, "/api/v1/render?format=data_url", map[string]string{"image_url": host.URL + "/office.png"})
	if w.Code != http.StatusOK {
		t.Fatalf("render of a template image = %d: %s", w.Code, w.Body.String())
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("image host hits = %d, want 1", n)
	}
}
