package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"leaf-health-bot/internal/domain/entity"
	"leaf-health-bot/internal/domain/port"
)

// DefaultAnalysisTimeout применяется, если таймаут не задан.
const DefaultAnalysisTimeout = 60 * time.Second

// DiagnosisService проводит анализ фото, подбирает советы и архивирует отчёт.
type DiagnosisService struct {
	users    *UserService
	analyzer port.LeafAnalyzer
	codec    port.ImageCodec
	plants   port.KnowledgeBase
	advisor  port.CareAdvisor
	archive  port.ReportArchive
	timeout  time.Duration
	log      zerolog.Logger
	now      func() time.Time
}

// DiagnosisRequest входные данные одного анализа.
type DiagnosisRequest struct {
	Image   []byte
	Plant   string // ID или название растения, пусто если не выбрано
	Options entity.AnalysisOptions
}

// Diagnosis содержит результат анализа, советы и тепловую карту.
type Diagnosis struct {
	ReportID  string
	CreatedAt time.Time
	Plant     *entity.Plant
	Result    *entity.AnalysisResult
	Advice    *entity.CareAdvice
	Heatmap   []byte // JPEG
	Archived  bool
}

// NewDiagnosisService создаёт сервис. archive может быть nil.
func NewDiagnosisService(
	users *UserService,
	analyzer port.LeafAnalyzer,
	codec port.ImageCodec,
	plants port.KnowledgeBase,
	advisor port.CareAdvisor,
	archive port.ReportArchive,
	timeout time.Duration,
	log zerolog.Logger,
) *DiagnosisService {
	if timeout <= 0 {
		timeout = DefaultAnalysisTimeout
	}
	return &DiagnosisService{
		users:    users,
		analyzer: analyzer,
		codec:    codec,
		plants:   plants,
		advisor:  advisor,
		archive:  archive,
		timeout:  timeout,
		log:      log.With().Str("component", "diagnosis").Logger(),
		now:      time.Now,
	}
}

// Diagnose декодирует фото, запускает анализ с таймаутом и собирает отчёт.
func (s *DiagnosisService) Diagnose(ctx context.Context, req DiagnosisRequest) (*Diagnosis, error) {
	if s.analyzer == nil {
		return nil, errors.New("analyzer is not configured")
	}

	var plant *entity.Plant
	if req.Plant != "" {
		p, err := s.plants.Lookup(req.Plant)
		if err != nil {
			return nil, err
		}
		plant = &p
	}

	img, err := s.codec.Decode(req.Image)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	started := s.now()
	result, err := s.analyzer.Analyze(ctx, img, req.Options)
	if err != nil {
		s.log.Warn().Err(err).Str("kind", string(entity.KindOf(err))).Msg("analysis failed")
		return nil, err
	}

	advice, err := s.advisor.Advise(ctx, plant, result)
	if err != nil {
		return nil, fmt.Errorf("advise: %w", err)
	}

	heatmap, err := s.codec.EncodeJPEG(result.Heatmap)
	if err != nil {
		return nil, entity.NewStageFailure(entity.StepDamageHeatmap, fmt.Errorf("encode heatmap: %w", err))
	}

	d := &Diagnosis{
		ReportID:  uuid.NewString(),
		CreatedAt: started.UTC(),
		Plant:     plant,
		Result:    result,
		Advice:    advice,
		Heatmap:   heatmap,
	}
	d.Archived = s.archiveReport(ctx, d)

	s.log.Info().
		Str("report_id", d.ReportID).
		Str("plant", plantID(plant)).
		Float64("score", result.Health.Score).
		Str("grade", result.Health.Grade).
		Dur("took", s.now().Sub(started)).
		Msg("diagnosis ready")
	return d, nil
}

// PhotoLoader получает байты фото, когда пользователь уже занят анализом.
type PhotoLoader func(ctx context.Context) ([]byte, error)

// DiagnosePhoto анализирует фото из чата с настройками пользователя
// и возвращает его в главное меню. Пока идёт анализ, повторный вызов
// для того же пользователя возвращает ErrBusy, не вызывая load.
func (s *DiagnosisService) DiagnosePhoto(ctx context.Context, userID, chatID int64, load PhotoLoader) (*Diagnosis, error) {
	user, err := s.users.BeginProcessing(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if _, err := s.users.SetState(context.WithoutCancel(ctx), userID, chatID, entity.StateMainMenu); err != nil {
			s.log.Error().Err(err).Int64("user_id", userID).Msg("reset user state")
		}
	}()

	photo, err := load(ctx)
	if err != nil {
		return nil, err
	}
	return s.Diagnose(ctx, DiagnosisRequest{
		Image:   photo,
		Plant:   user.PlantID,
		Options: entity.AnalysisOptions{IsolateForeground: user.IsolateForeground},
	})
}

// Report возвращает архивированный отчёт.
func (s *DiagnosisService) Report(ctx context.Context, id string) (*entity.ArchivedReport, error) {
	if s.archive == nil {
		return nil, entity.NewReportNotFound(id)
	}
	return s.archive.Load(ctx, id)
}

// archiveReport сохраняет отчёт; ошибка архива не отменяет результат анализа.
func (s *DiagnosisService) archiveReport(ctx context.Context, d *Diagnosis) bool {
	if s.archive == nil {
		return false
	}

	summary, err := json.Marshal(entity.NewReportSummary(d.ReportID, plantID(d.Plant), d.CreatedAt, d.Result))
	if err != nil {
		s.log.Warn().Err(err).Str("report_id", d.ReportID).Msg("encode report summary")
		return false
	}

	_, err = s.archive.Save(ctx, &entity.ArchivedReport{
		ID:        d.ReportID,
		CreatedAt: d.CreatedAt,
		Summary:   summary,
		Heatmap:   d.Heatmap,
	})
	if err != nil {
		s.log.Warn().Err(err).Str("report_id", d.ReportID).Msg("archive report")
		return false
	}
	return true
}

func plantID(p *entity.Plant) string {
	if p == nil {
		return ""
	}
	return p.ID
}
