package handlers

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"takeoff-service/internal/models"
	"takeoff-service/internal/parser"
	"takeoff-service/internal/pipeline"
	"takeoff-service/internal/services"
	"takeoff-service/internal/services/caches"
)

func newTestApp(t *testing.T, maxUpload int64) (*fiber.App, *services.ModelService) {
	t.Helper()
	mem := caches.NewMemoryCache(64<<20, time.Hour, nil)
	t.Cleanup(mem.Close)
	cacheSvc := services.NewCacheService(services.NewCacheStrategy(mem, nil, nil, nil), nil, nil)

	parsers := parser.NewRegistry(64 << 20)
	svc := services.NewModelService(parsers, &pipeline.LocalStrategy{Parsers: parsers, ChunkSize: 2},
		cacheSvc, nil, nil, maxUpload, time.Hour, nil, nil)

	app := fiber.New()
	RegisterRoutes(app.Group("/api"), NewModelHandler(svc, nil), NewCacheHandler(cacheSvc, nil))
	return app, svc
}

func houseBytes(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile("../parser/testdata/house.json")
	require.NoError(t, err)
	return data
}

func rawUpload(name string, data []byte) *http.Request {
	req := httptest.NewRequest(fiber.MethodPost, "/api/models/process", bytes.NewReader(data))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)
	req.Header.Set("X-File-Name", name)
	return req
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, v))
}

func TestProcessModelRawBody(t *testing.T) {
	app, _ := newTestApp(t, 1<<20)
	data := houseBytes(t)

	resp, err := app.Test(rawUpload("house.json", data), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "false", resp.Header.Get("X-Cache-Hit"))
	assert.Equal(t, pipeline.StrategyLocal, resp.Header.Get("X-Pipeline-Strategy"))

	var first models.Bundle
	decode(t, resp, &first)
	assert.Equal(t, services.HashContent(data), first.Hash)
	assert.False(t, first.CacheHit)
	require.NotEmpty(t, first.Materials)
	assert.True(t, first.Materials[0].AreaApproximate)

	resp, err = app.Test(rawUpload("house.json", data), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "true", resp.Header.Get("X-Cache-Hit"))

	var second models.Bundle
	decode(t, resp, &second)
	assert.True(t, second.CacheHit)
	assert.Equal(t, first.MeshCount, second.MeshCount)
	assert.Len(t, second.Materials, len(first.Materials))

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/api/models/"+first.Hash, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestProcessModelMultipart(t *testing.T) {
	app, _ := newTestApp(t, 1<<20)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "house.json")
	require.NoError(t, err)
	_, err = part.Write(houseBytes(t))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(fiber.MethodPost, "/api/models/process", &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var bundle models.Bundle
	decode(t, resp, &bundle)
	assert.Equal(t, "house.json", bundle.FileName)
	assert.NotNil(t, bundle.SpatialTree)
}

func TestProcessModelErrors(t *testing.T) {
	app, _ := newTestApp(t, 64)

	resp, err := app.Test(rawUpload("house.json", houseBytes(t)), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusRequestEntityTooLarge, resp.StatusCode)
	var body map[string]any
	decode(t, resp, &body)
	assert.Equal(t, "size_limit", body["code"])
	assert.Equal(t, "worker", body["suggestAlternate"])

	resp, err = app.Test(rawUpload("plan.dwg", []byte("x")), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	req := httptest.NewRequest(fiber.MethodPost, "/api/models/process", bytes.NewReader([]byte("{}")))
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestGetModelNotFound(t *testing.T) {
	app, _ := newTestApp(t, 1<<20)

	missing := services.HashContent([]byte("nothing"))
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/models/"+missing, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/api/models/not-a-hash", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/api/models", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestCacheEndpoints(t *testing.T) {
	app, _ := newTestApp(t, 1<<20)
	data := houseBytes(t)
	hash := services.HashContent(data)

	resp, err := app.Test(rawUpload("house.json", data), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/api/cache/stats", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var stats services.MultiLayerCacheStats
	decode(t, resp, &stats)
	require.Len(t, stats.Layers, 1)
	assert.Equal(t, 1, stats.Layers[0].Objects)

	resp, err = app.Test(httptest.NewRequest(fiber.MethodDelete, "/api/cache/"+hash, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/api/models/"+hash, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(fiber.MethodPost, "/api/cache/clear", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(fiber.MethodDelete, "/api/cache/xyz", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
