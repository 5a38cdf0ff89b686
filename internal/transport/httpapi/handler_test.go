package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	app "leaf-health-bot/internal/application"
	"leaf-health-bot/internal/domain/entity"
	"leaf-health-bot/internal/infrastructure/imagecodec"
	"leaf-health-bot/internal/infrastructure/knowledge"
	"leaf-health-bot/internal/infrastructure/storage"
)

type fakeAnalyzer struct {
	opts   entity.AnalysisOptions
	result *entity.AnalysisResult
	err    error
}

func (f *fakeAnalyzer) Analyze(_ context.Context, _ image.Image, opts entity.AnalysisOptions) (*entity.AnalysisResult, error) {
	f.opts = opts
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func sampleResult() *entity.AnalysisResult {
	r := entity.ColorRatios{Green: 55, Yellow: 6, Brown: 20}
	heat := image.NewRGBA(image.Rect(0, 0, 16, 16))
	heat.Set(3, 3, color.RGBA{R: 255, A: 255})
	brown := image.NewGray(image.Rect(0, 0, 16, 16))
	brown.SetGray(3, 3, color.Gray{Y: 255})
	spot, _ := entity.NewSpotRecord(150, 45)
	return &entity.AnalysisResult{
		Width:   16,
		Height:  16,
		Ratios:  r,
		Masks:   entity.ColorMasks{Brown: brown},
		Heatmap: heat,
		Spots:   entity.SummarizeSpots([]entity.SpotRecord{spot}),
		Health:  entity.AssessHealth(entity.HealthFeatures{Ratios: r}),
		Steps: []entity.ProcessingStep{
			{Name: entity.StepWhiteBalance, Status: entity.StepApplied, Duration: 1500 * time.Microsecond},
		},
	}
}

func newTestHandler(t *testing.T, analyzer *fakeAnalyzer, opts Options) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	catalog, err := knowledge.Load()
	require.NoError(t, err)

	users := app.NewUserService(storage.NewMemoryUserRepository())
	diagnosis := app.NewDiagnosisService(
		users,
		analyzer,
		imagecodec.Codec{},
		catalog,
		app.NewKnowledgeAdvisor(),
		storage.NewMemoryReportArchive(5),
		time.Second,
		zerolog.Nop(),
	)
	return NewHandler(diagnosis, catalog, imagecodec.Codec{}, opts, zerolog.Nop())
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 60, 140, 50, 255
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func uploadRequest(t *testing.T, target string, file []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if file != nil {
		part, err := w.CreateFormFile("image", "leaf.png")
		require.NoError(t, err)
		_, err = part.Write(file)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealth(t *testing.T) {
	h := newTestHandler(t, &fakeAnalyzer{}, Options{})

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"available"`)
}

func TestPlantsAndTechniques(t *testing.T) {
	h := newTestHandler(t, &fakeAnalyzer{}, Options{})

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/plants", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var refs []PlantRef
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &refs))
	require.Len(t, refs, 10)

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/plants/monstra", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var plant entity.Plant
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plant))
	require.Equal(t, "monstera", plant.ID)

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/plants/cactus-of-doom", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, string(entity.KindUnknownPlant), decodeError(t, rec).Kind)

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/techniques", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var techniques []entity.Technique
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &techniques))
	require.Len(t, techniques, 11)
}

func TestAnalyze_ArchivesReport(t *testing.T) {
	analyzer := &fakeAnalyzer{result: sampleResult()}
	h := newTestHandler(t, analyzer, Options{MaxUploadBytes: 1 << 20})

	rec := serve(h, uploadRequest(t, "/analyze", pngBytes(t), map[string]string{"plant": "basil", "isolate": "true"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.True(t, analyzer.opts.IsolateForeground)
	require.False(t, analyzer.opts.KeepIntermediates)

	var resp AnalysisResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.ReportID)
	require.True(t, resp.Archived)
	require.Equal(t, "basil", resp.Plant.ID)
	require.Equal(t, entity.StatusDiseased, resp.Health.Status)
	require.Equal(t, 1, resp.Spots.Total)
	require.Equal(t, 1, resp.Spots.Medium)
	require.Len(t, resp.Steps, 1)
	require.InDelta(t, 1.5, resp.Steps[0].DurationMS, 1e-9)
	require.NotNil(t, resp.Advice)
	require.Equal(t, app.DetectedNecrosis, resp.Advice.Detected)
	require.Empty(t, resp.Images)

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/reports/"+resp.ReportID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var summary entity.ReportSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	require.Equal(t, resp.ReportID, summary.ID)
	require.Equal(t, "basil", summary.PlantID)

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/reports/"+resp.ReportID+"/heatmap", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	require.Equal(t, []byte{0xFF, 0xD8}, rec.Body.Bytes()[:2])
}

func TestAnalyze_IncludeImages(t *testing.T) {
	analyzer := &fakeAnalyzer{result: sampleResult()}
	h := newTestHandler(t, analyzer, Options{IsolateForeground: true})

	rec := serve(h, uploadRequest(t, "/analyze?include=images", pngBytes(t), nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.True(t, analyzer.opts.KeepIntermediates)
	require.True(t, analyzer.opts.IsolateForeground)

	var resp AnalysisResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Contains(t, resp.Images, "heatmap")
	require.Contains(t, resp.Images, "brown_mask")
	require.NotContains(t, resp.Images, "gray")
}

func TestAnalyze_BadRequests(t *testing.T) {
	h := newTestHandler(t, &fakeAnalyzer{result: sampleResult()}, Options{MaxUploadBytes: 1 << 20})

	rec := serve(h, uploadRequest(t, "/analyze", []byte("not an image"), nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, string(entity.KindInvalidImage), decodeError(t, rec).Kind)

	rec = serve(h, uploadRequest(t, "/analyze", nil, map[string]string{"plant": "basil"}))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(h, uploadRequest(t, "/analyze", pngBytes(t), map[string]string{"isolate": "maybe"}))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(h, uploadRequest(t, "/analyze", pngBytes(t), map[string]string{"plant": "cactus-of-doom"}))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAnalyze_UploadTooLarge(t *testing.T) {
	h := newTestHandler(t, &fakeAnalyzer{result: sampleResult()}, Options{MaxUploadBytes: 512})

	rec := serve(h, uploadRequest(t, "/analyze", bytes.Repeat([]byte{7}, 4096), nil))
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestAnalyze_AnalyzerFailures(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"stage failure", entity.NewStageFailure(entity.StepCLAHE, context.Canceled), http.StatusUnprocessableEntity},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"unexpected", bytes.ErrTooLarge, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestHandler(t, &fakeAnalyzer{err: tc.err}, Options{})

			rec := serve(h, uploadRequest(t, "/analyze", pngBytes(t), nil))
			require.Equal(t, tc.code, rec.Code)
		})
	}
}

func TestReportNotFound(t *testing.T) {
	h := newTestHandler(t, &fakeAnalyzer{}, Options{})

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/reports/nope", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, string(entity.KindReportNotFound), decodeError(t, rec).Kind)

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/reports/nope/heatmap", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

// countingArchive считает обращения к архиву.
type countingArchive struct {
	loads []string
}

func (a *countingArchive) Save(_ context.Context, r *entity.ArchivedReport) (string, error) {
	return r.ID, nil
}

func (a *countingArchive) Load(_ context.Context, id string) (*entity.ArchivedReport, error) {
	a.loads = append(a.loads, id)
	return nil, entity.NewReportNotFound(id)
}

func TestReport_MalformedIDNeverReachesArchive(t *testing.T) {
	gin.SetMode(gin.TestMode)
	catalog, err := knowledge.Load()
	require.NoError(t, err)
	archive := &countingArchive{}
	diagnosis := app.NewDiagnosisService(
		app.NewUserService(storage.NewMemoryUserRepository()),
		&fakeAnalyzer{},
		imagecodec.Codec{},
		catalog,
		app.NewKnowledgeAdvisor(),
		archive,
		time.Second,
		zerolog.Nop(),
	)
	h := NewHandler(diagnosis, catalog, imagecodec.Codec{}, Options{}, zerolog.Nop())

	for _, path := range []string{
		"/reports/nope",
		"/reports/report.json",
		"/reports/6f1c2a3e-0000-4000-8000-00000000000z/heatmap",
	} {
		rec := serve(h, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusNotFound, rec.Code, path)
		require.Equal(t, string(entity.KindReportNotFound), decodeError(t, rec).Kind, path)
	}
	require.Empty(t, archive.loads)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/reports/6F1C2A3E-0000-4000-8000-000000000001", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, []string{"6f1c2a3e-0000-4000-8000-000000000001"}, archive.loads)
}

func TestStatusFor(t *testing.T) {
	require.Equal(t, http.StatusBadRequest, StatusFor(entity.NewInvalidImage("empty")))
	require.Equal(t, http.StatusNotFound, StatusFor(entity.NewUnknownPlant("x")))
	require.Equal(t, http.StatusNotFound, StatusFor(entity.NewReportNotFound("x")))
	require.Equal(t, http.StatusUnprocessableEntity, StatusFor(entity.NewStageFailure(entity.StepLBP, nil)))
	require.Equal(t, http.StatusGatewayTimeout, StatusFor(context.DeadlineExceeded))
	require.Equal(t, http.StatusRequestEntityTooLarge, StatusFor(&http.MaxBytesError{Limit: 10}))
	require.Equal(t, http.StatusInternalServerError, StatusFor(bytes.ErrTooLarge))
}
