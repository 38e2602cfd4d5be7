package main

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/digital-native-cli/internal/batch"
	"github.com/sells-group/digital-native-cli/internal/config"
	"github.com/sells-group/digital-native-cli/internal/model"
	"github.com/sells-group/digital-native-cli/internal/scoring"
	"github.com/sells-group/digital-native-cli/internal/store"
)

type testServer struct {
	handler http.Handler
	store   store.Store
	queue   *batch.Queue
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })

	engine := scoring.NewEngine(nil, config.AnthropicConfig{})
	queue := batch.NewQueue(2, 8)
	coord := batch.NewCoordinator(st, engine, queue)

	return &testServer{
		handler: newRouter(coord, st, nil),
		store:   st,
		queue:   queue,
	}
}

// drain waits for all queued batches to finish.
func (ts *testServer) drain(t *testing.T) {
	t.Helper()
	require.NoError(t, ts.queue.Shutdown(context.Background()))
}

func multipartUpload(t *testing.T, filename string, contents []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(contents)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func uploadCSV(t *testing.T, ts *testServer, csv string) string {
	t.Helper()
	body, contentType := multipartUpload(t, "companies.csv", []byte(csv))
	req := httptest.NewRequest(http.MethodPost, "/api/analyze-csv", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		BatchID        string `json:"batch_id"`
		TotalCompanies int    `json:"total_companies"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.BatchID)
	return resp.BatchID
}

const sampleCSV = "name,domain,industry\nStripe,stripe.com,Fintech\nAcme,acme.example,Manufacturing\n"

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)
	defer ts.drain(t)

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestBannerEndpoint(t *testing.T) {
	ts := newTestServer(t)
	defer ts.drain(t)

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Digital Native Company Analyzer API")
}

func TestAnalyzeUploadLifecycle(t *testing.T) {
	ts := newTestServer(t)
	batchID := uploadCSV(t, ts, sampleCSV)
	ts.drain(t)

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/progress/"+batchID, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var progress model.Progress
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &progress))
	assert.Equal(t, 2, progress.Total)
	assert.Equal(t, 2, progress.Completed)
	assert.Equal(t, model.BatchCompleted, progress.Status)

	rec = httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/results/"+batchID, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var items []model.AnalysisItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 2)
	for _, it := range items {
		assert.Equal(t, model.StatusCompleted, it.Status)
		require.NotNil(t, it.Result)
		assert.NotEmpty(t, it.Result.DigitalNativeReasoning)
	}
}

func TestAnalyzeUploadMissingDomainColumn(t *testing.T) {
	ts := newTestServer(t)
	defer ts.drain(t)

	body, contentType := multipartUpload(t, "companies.csv", []byte("name,industry\nStripe,Fintech\n"))
	req := httptest.NewRequest(http.MethodPost, "/api/analyze-csv", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "domain")

	// Nothing persisted.
	items, err := ts.store.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestAnalyzeUploadWrongExtension(t *testing.T) {
	ts := newTestServer(t)
	defer ts.drain(t)

	body, contentType := multipartUpload(t, "companies.txt", []byte("whatever"))
	req := httptest.NewRequest(http.MethodPost, "/api/analyze-csv", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeUploadNoFileField(t *testing.T) {
	ts := newTestServer(t)
	defer ts.drain(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("other", "value"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/analyze-csv", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeUploadTooLarge(t *testing.T) {
	ts := newTestServer(t)
	defer ts.drain(t)

	oversized := append([]byte("name,domain\n"), bytes.Repeat([]byte("a"), maxUploadBytes)...)
	body, contentType := multipartUpload(t, "companies.csv", oversized)
	req := httptest.NewRequest(http.MethodPost, "/api/analyze-csv", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "upload limit")

	items, err := ts.store.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestProgressUnknownBatch(t *testing.T) {
	ts := newTestServer(t)
	defer ts.drain(t)

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/progress/no-such-batch", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Batch not found")
}

func TestResultsUnknownBatch(t *testing.T) {
	ts := newTestServer(t)
	defer ts.drain(t)

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/results/no-such-batch", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportBatch(t *testing.T) {
	ts := newTestServer(t)
	batchID := uploadCSV(t, ts, sampleCSV)
	ts.drain(t)

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/export/"+batchID, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), batchID)

	f, err := xlsx.OpenBinary(rec.Body.Bytes())
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)
	assert.Equal(t, "Digital Native Analysis", f.Sheets[0].Name)
	assert.Len(t, f.Sheets[0].Rows, 3)
}

func TestExportUnknownBatch(t *testing.T) {
	ts := newTestServer(t)
	defer ts.drain(t)

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/export/no-such-batch", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCompaniesEndpoint(t *testing.T) {
	ts := newTestServer(t)
	uploadCSV(t, ts, sampleCSV)
	ts.drain(t)

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/companies", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var items []model.AnalysisItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	assert.Len(t, items, 2)
}

func TestCompaniesEndpointEmpty(t *testing.T) {
	ts := newTestServer(t)
	defer ts.drain(t)

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/companies", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestDeleteBatchLifecycle(t *testing.T) {
	ts := newTestServer(t)
	batchID := uploadCSV(t, ts, sampleCSV)
	ts.drain(t)

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/batch/"+batchID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), batchID)

	rec = httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/progress/"+batchID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteUnknownBatch(t *testing.T) {
	ts := newTestServer(t)
	defer ts.drain(t)

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/batch/no-such-batch", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
