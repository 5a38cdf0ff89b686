package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"leaf-health-bot/internal/domain/entity"
	"leaf-health-bot/internal/infrastructure/imagecodec"
	"leaf-health-bot/internal/infrastructure/knowledge"
	"leaf-health-bot/internal/infrastructure/storage"
)

type fakeAnalyzer struct {
	calls  int
	opts   entity.AnalysisOptions
	result *entity.AnalysisResult
	err    error
	block  bool
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, img image.Image, opts entity.AnalysisOptions) (*entity.AnalysisResult, error) {
	f.calls++
	f.opts = opts
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type failingArchive struct{}

func (failingArchive) Save(context.Context, *entity.ArchivedReport) (string, error) {
	return "", errors.New("storage is down")
}

func (failingArchive) Load(_ context.Context, id string) (*entity.ArchivedReport, error) {
	return nil, entity.NewReportNotFound(id)
}

func pngPhoto(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 24))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 40, 160, 40, 255
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func diseasedResult() *entity.AnalysisResult {
	r := entity.ColorRatios{Green: 50, Yellow: 5, Brown: 20}
	heat := image.NewRGBA(image.Rect(0, 0, 32, 24))
	heat.Set(1, 1, color.RGBA{R: 255, A: 255})
	return &entity.AnalysisResult{
		Width:   32,
		Height:  24,
		Ratios:  r,
		Heatmap: heat,
		Health:  entity.AssessHealth(entity.HealthFeatures{Ratios: r}),
	}
}

type fixture struct {
	svc      *DiagnosisService
	analyzer *fakeAnalyzer
	users    *UserService
	archive  *storage.MemoryReportArchive
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	catalog, err := knowledge.Load()
	require.NoError(t, err)

	f := &fixture{
		analyzer: &fakeAnalyzer{result: diseasedResult()},
		users:    NewUserService(storage.NewMemoryUserRepository()),
		archive:  storage.NewMemoryReportArchive(10),
	}
	f.svc = NewDiagnosisService(f.users, f.analyzer, imagecodec.Codec{}, catalog, NewKnowledgeAdvisor(), f.archive, time.Second, zerolog.Nop())
	return f
}

func TestDiagnose_FullFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d, err := f.svc.Diagnose(ctx, DiagnosisRequest{Image: pngPhoto(t), Plant: "Basil", Options: entity.AnalysisOptions{IsolateForeground: true}})
	require.NoError(t, err)
	require.True(t, f.analyzer.opts.IsolateForeground)

	require.NotEmpty(t, d.ReportID)
	require.Equal(t, "basil", d.Plant.ID)
	require.Equal(t, DetectedNecrosis, d.Advice.Detected)
	require.Equal(t, []byte{0xFF, 0xD8}, d.Heatmap[:2])
	require.True(t, d.Archived)

	report, err := f.svc.Report(ctx, d.ReportID)
	require.NoError(t, err)
	require.Equal(t, d.Heatmap, report.Heatmap)

	var summary entity.ReportSummary
	require.NoError(t, json.Unmarshal(report.Summary, &summary))
	require.Equal(t, d.ReportID, summary.ID)
	require.Equal(t, "basil", summary.PlantID)
	require.Equal(t, entity.StatusDiseased, summary.Status)
}

func TestDiagnose_UnknownPlantSkipsAnalysis(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Diagnose(context.Background(), DiagnosisRequest{Image: pngPhoto(t), Plant: "cactus-of-doom"})
	require.ErrorIs(t, err, entity.ErrUnknownPlant)
	require.Zero(t, f.analyzer.calls)
}

func TestDiagnose_InvalidImage(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Diagnose(context.Background(), DiagnosisRequest{Image: []byte("nope")})
	require.ErrorIs(t, err, entity.ErrInvalidImage)
	require.Zero(t, f.analyzer.calls)
}

func TestDiagnose_AnalyzerErrorIsReturned(t *testing.T) {
	f := newFixture(t)
	f.analyzer.err = entity.NewStageFailure("resize", errors.New("boom"))

	_, err := f.svc.Diagnose(context.Background(), DiagnosisRequest{Image: pngPhoto(t)})
	require.ErrorIs(t, err, entity.ErrStageFailure)
}

func TestDiagnose_Timeout(t *testing.T) {
	f := newFixture(t)
	f.analyzer.block = true
	f.svc.timeout = 20 * time.Millisecond

	_, err := f.svc.Diagnose(context.Background(), DiagnosisRequest{Image: pngPhoto(t)})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDiagnose_ArchiveFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.svc.archive = failingArchive{}

	d, err := f.svc.Diagnose(context.Background(), DiagnosisRequest{Image: pngPhoto(t)})
	require.NoError(t, err)
	require.False(t, d.Archived)
	require.Nil(t, d.Plant)
}

func TestDiagnosePhoto_UsesUserPreferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.users.SelectPlant(ctx, 1, 10, "tomato")
	require.NoError(t, err)
	_, err = f.users.ToggleIsolation(ctx, 1, 10)
	require.NoError(t, err)
	_, err = f.users.BeginCheck(ctx, 1, 10)
	require.NoError(t, err)

	d, err := f.svc.DiagnosePhoto(ctx, 1, 10, photoLoader(pngPhoto(t)))
	require.NoError(t, err)
	require.Equal(t, "tomato", d.Plant.ID)
	require.True(t, f.analyzer.opts.IsolateForeground)

	user, err := f.users.Get(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, user.State)
}

func photoLoader(data []byte) PhotoLoader {
	return func(context.Context) ([]byte, error) { return data, nil }
}

func TestDiagnosePhoto_BusyUserSkipsLoad(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.users.SetState(ctx, 1, 10, entity.StateProcessing)
	require.NoError(t, err)

	loaded := false
	_, err = f.svc.DiagnosePhoto(ctx, 1, 10, func(context.Context) ([]byte, error) {
		loaded = true
		return pngPhoto(t), nil
	})
	require.ErrorIs(t, err, ErrBusy)
	require.False(t, loaded)
	require.Zero(t, f.analyzer.calls)

	user, err := f.users.Get(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateProcessing, user.State)
}

func TestDiagnosePhoto_LoadFailureResetsState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.DiagnosePhoto(ctx, 1, 10, func(context.Context) ([]byte, error) {
		return nil, errors.New("telegram is down")
	})
	require.EqualError(t, err, "telegram is down")

	user, err := f.users.Get(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, user.State)
}

func TestReport_WithoutArchive(t *testing.T) {
	f := newFixture(t)
	f.svc.archive = nil

	_, err := f.svc.Report(context.Background(), "x")
	require.ErrorIs(t, err, entity.ErrReportNotFound)
}
