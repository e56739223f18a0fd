package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"classroom_backend/internals/configs"
	helper "classroom_backend/internals/helpers"
	helperOSS "classroom_backend/internals/helpers/oss"
	routeDetails "classroom_backend/internals/route/details"
	"classroom_backend/internals/testutil"
)

const testSecret = "route-test-secret"

type envelope struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	ErrorCode string          `json:"error_code"`
	Data      json.RawMessage `json:"data"`
}

type apiClient struct {
	t   *testing.T
	app *fiber.App
}

func bearer(t *testing.T, id uuid.UUID, role string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":   id.String(),
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + tok
}

func (a apiClient) do(req *http.Request, auth string) *http.Response {
	a.t.Helper()
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(a.t, err)
	return resp
}

func (a apiClient) json(method, path, auth string, body any) (int, envelope) {
	a.t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp := a.do(req, auth)
	defer resp.Body.Close()

	var env envelope
	require.NoError(a.t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func newTestApp(t *testing.T) (apiClient, *helperOSS.MemoryStore, uuid.UUID, []uuid.UUID) {
	t.Helper()
	db := testutil.NewDB(t)
	batchID, students := testutil.SeedBatch(t, db, "Grade 7A", 2)
	objects := helperOSS.NewMemoryStore()

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error { return helper.FromAppError(c, err) },
	})
	SetupRoutes(app, routeDetails.SchoolDeps{
		DB:      db,
		Objects: objects,
		Log:     zaptest.NewLogger(t),
		Engine: configs.EngineConfig{
			CleanupMaxAttempts: 3,
			CleanupBackoffStep: time.Millisecond,
			ExportTimeout:      time.Minute,
			UploadURLTTL:       time.Minute,
			MaxUploadSize:      1 << 20,
		},
	}, testSecret)
	return apiClient{t: t, app: app}, objects, batchID, students
}

func TestAssignmentLifecycleOverHTTP(t *testing.T) {
	api, objects, batchID, students := newTestApp(t)
	teacher := bearer(t, uuid.New(), "teacher")
	student := bearer(t, students[0], "student")

	// create fans out one placeholder per student
	code, env := api.json(http.MethodPost, "/api/t/assignments", teacher, map[string]any{
		"assignment_title":     "Essay",
		"assignment_deadline":  time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339),
		"assignment_posted_to": batchID.String(),
	})
	require.Equal(t, fiber.StatusCreated, code, env.Message)
	var created struct {
		ID uuid.UUID `json:"assignment_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	base := "/api/t/assignments/" + created.ID.String()

	code, env = api.json(http.MethodGet, "/api/assignments", student, nil)
	require.Equal(t, fiber.StatusOK, code)
	var listed []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	assert.Len(t, listed, 1)

	// multipart submit
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "essay.txt")
	require.NoError(t, err)
	_, _ = part.Write([]byte("my essay"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPut, "/api/s/assignments/"+created.ID.String()+"/submission", &body)
	req.Header.Set(fiber.HeaderContentType, mw.FormDataContentType())
	resp := api.do(req, student)
	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(raw))
	assert.Contains(t, string(raw), `"submission_status":"SUBMITTED"`)
	require.Len(t, objects.Keys(), 1)

	// students cannot reach teacher routes
	code, _ = api.json(http.MethodDelete, base, student, nil)
	assert.Equal(t, fiber.StatusForbidden, code)

	// another teacher sees not-found
	code, env = api.json(http.MethodDelete, base, bearer(t, uuid.New(), "teacher"), nil)
	assert.Equal(t, fiber.StatusNotFound, code)
	assert.Equal(t, "NOT_AUTHORIZED", env.ErrorCode)

	// archive
	resp = api.do(httptest.NewRequest(http.MethodGet, base+"/submissions/archive", nil), teacher)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/zip", resp.Header.Get(fiber.HeaderContentType))
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "Essay_submissions.zip")
	archive, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	require.NoError(t, err)
	require.Len(t, zr.File, 1)
	assert.Equal(t, "01_Student_1.txt", zr.File[0].Name)
	rc, err := zr.File[0].Open()
	require.NoError(t, err)
	content, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "my essay", string(content))

	// delete cascades into storage
	code, env = api.json(http.MethodDelete, base, teacher, nil)
	require.Equal(t, fiber.StatusOK, code, env.Message)
	assert.Empty(t, objects.Keys())

	code, _ = api.json(http.MethodGet, "/api/assignments/"+created.ID.String(), teacher, nil)
	assert.Equal(t, fiber.StatusNotFound, code)
}

func TestRoutesRejectAnonymous(t *testing.T) {
	api, _, _, _ := newTestApp(t)

	code, env := api.json(http.MethodGet, "/api/assignments", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, code)
	assert.False(t, env.Success)

	code, _ = api.json(http.MethodGet, "/api/assignments/not-a-uuid", bearer(t, uuid.New(), "teacher"), nil)
	assert.Equal(t, fiber.StatusBadRequest, code)
}
