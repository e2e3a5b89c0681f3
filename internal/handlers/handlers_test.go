package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"rezoomai/resume-api/internal/models"
	"rezoomai/resume-api/internal/repositories"
	"rezoomai/resume-api/internal/services"
)

const validReply = `{"score": 91, "matchRate": 88, "summary": "Strong.",
  "feedback": {"strengths": ["Go"], "weaknesses": [], "suggestions": ["Add links"]},
  "improvements": {"content": [], "format": [], "keywords": ["gRPC"]}}`

type spyExtractor struct {
	calls int
	text  string
	err   error
}

func (s *spyExtractor) Extract(_ services.FileKind, data []byte) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	if s.text != "" {
		return s.text, nil
	}
	return services.NewTextExtractor().Extract(services.FileTXT, data)
}

type fakeArchive struct {
	key   string
	err   error
	saved [][]byte
}

func (f *fakeArchive) Save(_ context.Context, _, _ string, data []byte) (string, error) {
	f.saved = append(f.saved, data)
	return f.key, f.err
}

type fakeGenerator struct {
	reply string
	err   error
	block bool
}

func (f *fakeGenerator) GenerateText(ctx context.Context, _ string) (string, error) {
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.reply, f.err
}

type fakeFeedbackRepo struct {
	created   []*models.Feedback
	items     []models.Feedback
	lastLimit int
	err       error
}

func (f *fakeFeedbackRepo) Create(feedback *models.Feedback) error {
	if f.err != nil {
		return f.err
	}
	feedback.ID = uuid.New()
	f.created = append(f.created, feedback)
	return nil
}

func (f *fakeFeedbackRepo) FindByUser(_ string, limit int) ([]models.Feedback, error) {
	f.lastLimit = limit
	return f.items, f.err
}

type fakeProfileRepo struct {
	profiles map[string]models.UserProfile
	columns  []string
}

func (f *fakeProfileRepo) FindByUserID(userID string) (*models.UserProfile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return nil, repositories.ErrProfileNotFound
	}
	return &p, nil
}

func (f *fakeProfileRepo) Upsert(profile *models.UserProfile, columns []string) error {
	f.columns = columns
	existing, ok := f.profiles[profile.UserID]
	if !ok {
		f.profiles[profile.UserID] = *profile
		return nil
	}
	for _, col := range columns {
		switch col {
		case "email":
			existing.Email = profile.Email
		case "display_name":
			existing.DisplayName = profile.DisplayName
		case "updated_at":
			existing.UpdatedAt = profile.UpdatedAt
		}
	}
	f.profiles[profile.UserID] = existing
	return nil
}

type testDeps struct {
	extractor   *spyExtractor
	archive     services.Archive
	generator   *fakeGenerator
	timeout     time.Duration
	feedback    repositories.FeedbackRepository
	profiles    repositories.ProfileRepository
	maxFileSize int64
}

func newTestApp(t *testing.T, deps testDeps) *fiber.App {
	t.Helper()

	if deps.extractor == nil {
		deps.extractor = &spyExtractor{}
	}
	if deps.generator == nil {
		deps.generator = &fakeGenerator{reply: validReply}
	}
	if deps.timeout == 0 {
		deps.timeout = time.Second
	}
	if deps.maxFileSize == 0 {
		deps.maxFileSize = 10 << 20
	}

	log := zap.NewNop()
	analyze := NewAnalyzeHandler(services.NewAnalyzer(deps.generator, nil, deps.timeout, log), deps.feedback, log)
	analyze.now = func() time.Time { return time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC) }

	app := fiber.New(NewFiberConfig(BodyLimit(deps.maxFileSize), log))
	Routes{
		Upload:   NewUploadHandler(deps.extractor, deps.archive, deps.maxFileSize, log),
		Analyze:  analyze,
		Feedback: NewFeedbackHandler(deps.feedback, log),
		Profile:  NewProfileHandler(deps.profiles, log),
	}.Register(app)
	return app
}

func multipartBody(t *testing.T, field, fileName, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, fileName))
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	w, err := mw.CreatePart(h)
	if err != nil {
		t.Fatalf("failed to create part: %v", err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatalf("failed to write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func do(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, []byte) {
	t.Helper()

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	resp.Body.Close()
	return resp, body
}

func decode(t *testing.T, body []byte) map[string]any {
	t.Helper()

	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("invalid JSON body %q: %v", body, err)
	}
	return out
}

func expectError(t *testing.T, resp *http.Response, body []byte, status int, message string) {
	t.Helper()

	if resp.StatusCode != status {
		t.Fatalf("expected status %d, got %d: %s", status, resp.StatusCode, body)
	}
	if got := decode(t, body)["error"]; got != message {
		t.Fatalf("expected error %q, got %v", message, got)
	}
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestUploadTextFile(t *testing.T) {
	app := newTestApp(t, testDeps{})
	body, contentType := multipartBody(t, "resume", "resume.txt", "text/plain", []byte("John Doe\nSoftware Engineer\n\n"))

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	resp, raw := do(t, app, req)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, raw)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing CORS origin header")
	}

	var got models.UploadResponse
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	want := models.UploadResponse{
		Success:  true,
		Text:     "John Doe\nSoftware Engineer",
		FileName: "resume.txt",
		FileSize: 28,
		FileType: "text/plain",
	}
	if got != want {
		t.Fatalf("unexpected response:\n got %+v\nwant %+v", got, want)
	}
	if strings.Contains(string(raw), "archiveKey") {
		t.Fatalf("archiveKey must be omitted without an archive: %s", raw)
	}
}

func TestUploadBase64Transport(t *testing.T) {
	app := newTestApp(t, testDeps{})
	body, contentType := multipartBody(t, "resume", "cv.txt", "", []byte("Base64 Person"))

	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(base64.StdEncoding.EncodeToString(body.Bytes())))
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Body-Encoding", "base64")
	resp, raw := do(t, app, req)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, raw)
	}
	got := decode(t, raw)
	if got["text"] != "Base64 Person" || got["fileType"] != "text/plain" {
		t.Fatalf("unexpected response: %v", got)
	}
}

func TestUploadUnsupportedTypeSkipsExtraction(t *testing.T) {
	for _, name := range []string{"photo.png", "setup.exe"} {
		spy := &spyExtractor{}
		app := newTestApp(t, testDeps{extractor: spy})
		body, contentType := multipartBody(t, "resume", name, "application/octet-stream", []byte{0x89, 'P', 'N', 'G'})

		req := httptest.NewRequest(http.MethodPost, "/upload", body)
		req.Header.Set("Content-Type", contentType)
		resp, raw := do(t, app, req)

		expectError(t, resp, raw, http.StatusBadRequest, "Unsupported file type. Please upload PDF, DOCX, or TXT files.")
		if spy.calls != 0 {
			t.Fatalf("%s: extractor must not run, ran %d times", name, spy.calls)
		}
	}
}

func TestUploadMalformedMultipartSkipsExtraction(t *testing.T) {
	other, otherType := multipartBody(t, "document", "cv.txt", "", []byte("text"))
	valid, validType := multipartBody(t, "resume", "cv.txt", "text/plain", []byte("John Doe\nSoftware Engineer"))
	truncated := valid.Bytes()[:valid.Len()-12]

	cases := []struct {
		name        string
		body        io.Reader
		contentType string
		base64      bool
		message     string
	}{
		{"json body", strings.NewReader(`{"resume":"x"}`), "application/json", false, "Content-Type must be multipart/form-data"},
		{"missing boundary", strings.NewReader("--x\r\n"), "multipart/form-data", false, "Content-Type must be multipart/form-data"},
		{"no resume field", other, otherType, false, "No file uploaded"},
		{"garbage under valid boundary", strings.NewReader("this is not a multipart stream"), validType, false, "No file uploaded"},
		{"truncated part", bytes.NewReader(truncated), validType, false, "No valid file found"},
		{"invalid base64", strings.NewReader("%%% not base64 %%%"), validType, true, "Invalid base64 request body"},
	}

	for _, tc := range cases {
		spy := &spyExtractor{}
		app := newTestApp(t, testDeps{extractor: spy})

		req := httptest.NewRequest(http.MethodPost, "/upload", tc.body)
		req.Header.Set("Content-Type", tc.contentType)
		if tc.base64 {
			req.Header.Set("Content-Transfer-Encoding", "base64")
		}
		resp, raw := do(t, app, req)

		expectError(t, resp, raw, http.StatusBadRequest, tc.message)
		if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
			t.Fatalf("%s: missing CORS origin header", tc.name)
		}
		if spy.calls != 0 {
			t.Fatalf("%s: extractor must not run", tc.name)
		}
	}
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	spy := &spyExtractor{}
	app := newTestApp(t, testDeps{extractor: spy, maxFileSize: 1 << 20})
	body, contentType := multipartBody(t, "resume", "big.txt", "text/plain", bytes.Repeat([]byte("a"), 1<<20+1))

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	resp, raw := do(t, app, req)

	expectError(t, resp, raw, http.StatusBadRequest, "File too large. Maximum size is 1 MB.")
	if spy.calls != 0 {
		t.Fatalf("extractor must not run for oversized files")
	}
}

func TestUploadEmptyExtraction(t *testing.T) {
	app := newTestApp(t, testDeps{})
	body, contentType := multipartBody(t, "resume", "blank.txt", "text/plain", []byte("   \n\n  "))

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	resp, raw := do(t, app, req)

	expectError(t, resp, raw, http.StatusBadRequest, "Could not extract text from the uploaded file")
}

func TestUploadFallsBackToKindMIMEType(t *testing.T) {
	app := newTestApp(t, testDeps{extractor: &spyExtractor{text: "Extracted PDF text"}})
	body, contentType := multipartBody(t, "resume", "CV.PDF", "", []byte("%PDF-1.4 fake"))

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	resp, raw := do(t, app, req)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, raw)
	}
	if got := decode(t, raw)["fileType"]; got != "application/pdf" {
		t.Fatalf("expected application/pdf, got %v", got)
	}
}

func TestUploadArchivesOriginal(t *testing.T) {
	archive := &fakeArchive{key: "resumes/abc.txt"}
	app := newTestApp(t, testDeps{archive: archive})
	body, contentType := multipartBody(t, "resume", "resume.txt", "text/plain", []byte("Archived Person"))

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	resp, raw := do(t, app, req)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, raw)
	}
	if got := decode(t, raw)["archiveKey"]; got != "resumes/abc.txt" {
		t.Fatalf("expected archive key, got %v", got)
	}
	if len(archive.saved) != 1 || string(archive.saved[0]) != "Archived Person" {
		t.Fatalf("expected original bytes to be archived, got %q", archive.saved)
	}
}

func TestUploadArchiveFailureIsNotFatal(t *testing.T) {
	app := newTestApp(t, testDeps{archive: &fakeArchive{err: errors.New("bucket unavailable")}})
	body, contentType := multipartBody(t, "resume", "resume.txt", "text/plain", []byte("Still Works"))

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	resp, raw := do(t, app, req)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, raw)
	}
	if _, ok := decode(t, raw)["archiveKey"]; ok {
		t.Fatalf("archiveKey must be absent when archiving failed")
	}
}

func TestPreflight(t *testing.T) {
	app := newTestApp(t, testDeps{})

	for _, path := range []string{"/upload", "/analyze"} {
		resp, raw := do(t, app, httptest.NewRequest(http.MethodOptions, path, nil))

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, resp.StatusCode)
		}
		if len(raw) != 0 {
			t.Fatalf("%s: expected empty body, got %q", path, raw)
		}
		headers := map[string]string{
			"Access-Control-Allow-Origin":  "*",
			"Access-Control-Allow-Headers": "Content-Type, Authorization",
			"Access-Control-Allow-Methods": "POST, OPTIONS",
		}
		for k, v := range headers {
			if got := resp.Header.Get(k); got != v {
				t.Fatalf("%s: expected %s %q, got %q", path, k, v, got)
			}
		}
	}
}

func TestMethodNotAllowed(t *testing.T) {
	app := newTestApp(t, testDeps{})

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete, http.MethodPatch} {
		for _, path := range []string{"/upload", "/analyze"} {
			resp, raw := do(t, app, httptest.NewRequest(method, path, nil))
			expectError(t, resp, raw, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

func TestAnalyzeSuccess(t *testing.T) {
	app := newTestApp(t, testDeps{})

	resp, raw := do(t, app, jsonRequest(http.MethodPost, "/analyze", `{"resumeText":"Jane Doe, Go developer","jobTitle":"Backend Engineer"}`))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, raw)
	}

	var got models.AnalyzeResponse
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if !got.Success || got.Analysis == nil || got.Analysis.Score != 91 || got.Analysis.MatchRate != 88 {
		t.Fatalf("unexpected response: %s", raw)
	}
	if got.Timestamp != "2026-03-01T12:30:00.000Z" {
		t.Fatalf("unexpected timestamp %q", got.Timestamp)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing CORS origin header")
	}
}

func TestAnalyzeRejectsBadInput(t *testing.T) {
	app := newTestApp(t, testDeps{})

	cases := []struct {
		body    string
		message string
	}{
		{`{"resumeText":"   "}`, "Resume text is required"},
		{`{}`, "Resume text is required"},
		{``, "Resume text is required"},
		{`{"resumeText":`, "Invalid request payload"},
		{`{"resumeText": 42}`, "Invalid request payload"},
	}
	for _, tc := range cases {
		resp, raw := do(t, app, jsonRequest(http.MethodPost, "/analyze", tc.body))
		expectError(t, resp, raw, http.StatusBadRequest, tc.message)
	}
}

func TestAnalyzeServerFailures(t *testing.T) {
	cases := []struct {
		name      string
		generator *fakeGenerator
		status    int
		message   string
	}{
		{"model error", &fakeGenerator{err: errors.New("rpc error: quota exceeded for key AIza-secret")}, http.StatusInternalServerError, "Failed to analyze resume"},
		{"unparseable reply", &fakeGenerator{reply: "Sorry, I can't do that."}, http.StatusBadGateway, "Invalid AI response format"},
		{"timeout", &fakeGenerator{block: true}, http.StatusGatewayTimeout, "The analysis took too long. Please try again."},
	}

	for _, tc := range cases {
		app := newTestApp(t, testDeps{generator: tc.generator, timeout: 20 * time.Millisecond})
		resp, raw := do(t, app, jsonRequest(http.MethodPost, "/analyze", `{"resumeText":"cv"}`))

		if resp.StatusCode != tc.status {
			t.Fatalf("%s: expected %d, got %d: %s", tc.name, tc.status, resp.StatusCode, raw)
		}
		got := decode(t, raw)
		if got["error"] != "Internal server error" || got["message"] != tc.message {
			t.Fatalf("%s: unexpected body %s", tc.name, raw)
		}
		if strings.Contains(string(raw), "secret") {
			t.Fatalf("%s: upstream detail leaked: %s", tc.name, raw)
		}
	}
}

func TestAnalyzeRecordsFeedbackForUser(t *testing.T) {
	repo := &fakeFeedbackRepo{}
	app := newTestApp(t, testDeps{feedback: repo})

	resp, raw := do(t, app, jsonRequest(http.MethodPost, "/analyze", `{"resumeText":"cv","company":"Acme","userId":"uid-42"}`))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, raw)
	}

	if len(repo.created) != 1 {
		t.Fatalf("expected one feedback entry, got %d", len(repo.created))
	}
	entry := repo.created[0]
	if entry.UserID != "uid-42" || entry.Company != "Acme" || entry.Analysis.Score != 91 {
		t.Fatalf("unexpected entry: %+v", entry)
	}
}

func TestAnalyzeSucceedsWhenRecordingFails(t *testing.T) {
	repo := &fakeFeedbackRepo{err: errors.New("db down")}
	app := newTestApp(t, testDeps{feedback: repo})

	resp, raw := do(t, app, jsonRequest(http.MethodPost, "/analyze", `{"resumeText":"cv","userId":"uid-42"}`))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 despite history failure, got %d: %s", resp.StatusCode, raw)
	}
}

func TestFeedbackHistory(t *testing.T) {
	repo := &fakeFeedbackRepo{items: []models.Feedback{{UserID: "uid-1", JobTitle: "SRE"}}}
	app := newTestApp(t, testDeps{feedback: repo})

	resp, raw := do(t, app, httptest.NewRequest(http.MethodGet, "/users/uid-1/feedback?limit=25", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, raw)
	}
	if repo.lastLimit != 25 {
		t.Fatalf("expected limit 25, got %d", repo.lastLimit)
	}
	items, ok := decode(t, raw)["feedback"].([]any)
	if !ok || len(items) != 1 {
		t.Fatalf("unexpected feedback list: %s", raw)
	}
}

func TestFeedbackHistoryEmptyListIsArray(t *testing.T) {
	app := newTestApp(t, testDeps{feedback: &fakeFeedbackRepo{}})

	_, raw := do(t, app, httptest.NewRequest(http.MethodGet, "/users/uid-1/feedback", nil))
	if !strings.Contains(string(raw), `"feedback":[]`) {
		t.Fatalf("expected empty array, got %s", raw)
	}
}

func TestFeedbackCreateNormalizes(t *testing.T) {
	repo := &fakeFeedbackRepo{}
	app := newTestApp(t, testDeps{feedback: repo})

	body := `{"jobTitle":" Designer ","analysis":{"score":140,"matchRate":-3,"summary":"ok"}}`
	resp, raw := do(t, app, jsonRequest(http.MethodPost, "/users/uid-9/feedback", body))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, raw)
	}

	entry := repo.created[0]
	if entry.UserID != "uid-9" || entry.JobTitle != "Designer" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if entry.Analysis.Score != 100 || entry.Analysis.MatchRate != 0 {
		t.Fatalf("expected clamped scores, got %d/%d", entry.Analysis.Score, entry.Analysis.MatchRate)
	}
	if entry.Analysis.Feedback.Strengths == nil || entry.Analysis.Improvements.Keywords == nil {
		t.Fatalf("expected empty lists instead of nil")
	}
}

func TestFeedbackCreateRequiresAnalysis(t *testing.T) {
	app := newTestApp(t, testDeps{feedback: &fakeFeedbackRepo{}})

	resp, raw := do(t, app, jsonRequest(http.MethodPost, "/users/uid-9/feedback", `{"jobTitle":"x"}`))
	expectError(t, resp, raw, http.StatusBadRequest, "analysis is required")
}

func TestHistoryDisabledWithoutDatabase(t *testing.T) {
	app := newTestApp(t, testDeps{})

	resp, raw := do(t, app, httptest.NewRequest(http.MethodGet, "/users/uid-1/feedback", nil))
	expectError(t, resp, raw, http.StatusServiceUnavailable, "Feedback history is not enabled")

	resp, raw = do(t, app, httptest.NewRequest(http.MethodGet, "/users/uid-1/profile", nil))
	expectError(t, resp, raw, http.StatusServiceUnavailable, "User profiles are not enabled")
}

func TestProfileLifecycle(t *testing.T) {
	repo := &fakeProfileRepo{profiles: map[string]models.UserProfile{}}
	app := newTestApp(t, testDeps{profiles: repo})

	resp, raw := do(t, app, httptest.NewRequest(http.MethodGet, "/users/uid-5/profile", nil))
	expectError(t, resp, raw, http.StatusNotFound, "Profile not found")

	resp, raw = do(t, app, jsonRequest(http.MethodPut, "/users/uid-5/profile", `{"email":"jane@example.com","displayName":"Jane"}`))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, raw)
	}

	resp, raw = do(t, app, jsonRequest(http.MethodPut, "/users/uid-5/profile", `{"displayName":"Jane D."}`))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, raw)
	}
	if strings.Join(repo.columns, ",") != "updated_at,display_name" {
		t.Fatalf("expected only display name to be updated, got %v", repo.columns)
	}

	profile, ok := decode(t, raw)["profile"].(map[string]any)
	if !ok || profile["email"] != "jane@example.com" || profile["displayName"] != "Jane D." {
		t.Fatalf("expected merged profile, got %s", raw)
	}
}

func TestProfileUpdateValidation(t *testing.T) {
	app := newTestApp(t, testDeps{profiles: &fakeProfileRepo{profiles: map[string]models.UserProfile{}}})

	resp, raw := do(t, app, jsonRequest(http.MethodPut, "/users/uid-5/profile", `{}`))
	expectError(t, resp, raw, http.StatusBadRequest, "Nothing to update")

	resp, raw = do(t, app, jsonRequest(http.MethodPut, "/users/uid-5/profile", `{"email":"not-an-email"}`))
	expectError(t, resp, raw, http.StatusBadRequest, "Invalid email address")
}

func TestErrorHandler(t *testing.T) {
	app := fiber.New(NewFiberConfig(BodyLimit(1<<20), zap.NewNop()))
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("dial tcp 10.0.0.5:5432: connection refused")
	})

	cases := []struct {
		path   string
		status int
		want   map[string]any
	}{
		{"/missing", http.StatusNotFound, map[string]any{"error": "Cannot GET /missing"}},
		{"/boom", http.StatusInternalServerError, map[string]any{"error": "Internal server error", "message": "An unexpected error occurred"}},
	}

	for _, tc := range cases {
		resp, raw := do(t, app, httptest.NewRequest(http.MethodGet, tc.path, nil))

		if resp.StatusCode != tc.status {
			t.Fatalf("%s: expected %d, got %d", tc.path, tc.status, resp.StatusCode)
		}
		if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
			t.Fatalf("%s: missing CORS origin header", tc.path)
		}
		got := decode(t, raw)
		for k, v := range tc.want {
			if got[k] != v {
				t.Fatalf("%s: expected %s=%v, got %v", tc.path, k, v, got[k])
			}
		}
		if strings.Contains(string(raw), "10.0.0.5") {
			t.Fatalf("%s: internal detail leaked: %s", tc.path, raw)
		}
	}
}

func TestStatusFor(t *testing.T) {
	cases := map[services.Kind]int{
		services.KindBadRequest:           http.StatusBadRequest,
		services.KindUnsupportedType:      http.StatusBadRequest,
		services.KindExtraction:           http.StatusBadRequest,
		services.KindEmptyExtraction:      http.StatusBadRequest,
		services.KindInvalidModelResponse: http.StatusBadGateway,
		services.KindAnalysisFailed:       http.StatusInternalServerError,
		services.KindTimeout:              http.StatusGatewayTimeout,
		services.KindInternal:             http.StatusInternalServerError,
	}
	for kind, want := range cases {
		if got := StatusFor(kind); got != want {
			t.Fatalf("StatusFor(%s) = %d, want %d", kind, got, want)
		}
	}
}

func TestValidUserID(t *testing.T) {
	valid := []string{"uid-1", "Fz9aQ0lP2bX", strings.Repeat("a", maxUserIDLength)}
	invalid := []string{"", "has space", "tab\tid", strings.Repeat("a", maxUserIDLength+1)}

	for _, id := range valid {
		if !validUserID(id) {
			t.Fatalf("expected %q to be valid", id)
		}
	}
	for _, id := range invalid {
		if validUserID(id) {
			t.Fatalf("expected %q to be invalid", id)
		}
	}
}
