//go:build gocv
// +build gocv

package vision

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"leaf-health-bot/internal/domain/entity"
	"leaf-health-bot/internal/domain/port"
)

var _ port.LeafAnalyzer = (*Analyzer)(nil)

// Analyzer конвейер анализа листа на OpenCV.
// Один экземпляр можно использовать из нескольких горутин.
type Analyzer struct {
	texture port.TextureAnalyzer
	log     zerolog.Logger
}

// NewAnalyzer создаёт конвейер с выбранным текстурным бэкендом.
func NewAnalyzer(texture port.TextureAnalyzer, log zerolog.Logger) *Analyzer {
	if texture == nil {
		texture = &UnavailableTextureAnalyzer{}
	}
	return &Analyzer{
		texture: texture,
		log:     log.With().Str("component", "vision").Logger(),
	}
}

// run состояние одного запуска конвейера.
type run struct {
	ctx   context.Context
	log   zerolog.Logger
	trace *entity.StepTrace
	stage string
}

// step выполняет последовательный этап и записывает его в журнал.
func (r *run) step(name string, fn func() (entity.StepStatus, string, error)) error {
	r.stage = name
	st := startStage(name)
	status, detail, err := fn()
	if err != nil {
		var ae *entity.AnalysisError
		if errors.As(err, &ae) {
			return err
		}
		return entity.NewStageFailure(name, err)
	}
	r.record(st.done(status, detail))
	return r.ctx.Err()
}

func (r *run) record(s entity.ProcessingStep) {
	r.trace.Add(s)
	ev := r.log.Debug()
	if s.Status == entity.StepDegraded || s.Status == entity.StepFallback {
		ev = r.log.Warn()
	}
	ev.Str("step", s.Name).Str("status", string(s.Status)).Dur("took", s.Duration).Str("detail", s.Detail).Msg("step finished")
}

// Analyze прогоняет изображение через весь конвейер.
// Отмена контекста прерывает анализ между этапами и возвращает ctx.Err().
func (a *Analyzer) Analyze(ctx context.Context, img image.Image, opts entity.AnalysisOptions) (result *entity.AnalysisResult, err error) {
	if img == nil {
		return nil, entity.NewInvalidImage("nil image")
	}
	b := img.Bounds()
	w, h, err := TargetSize(b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r := &run{ctx: ctx, log: a.log, trace: entity.NewStepTrace(), stage: stageResize}
	defer func() {
		if p := recover(); p != nil {
			a.log.Error().Str("stage", r.stage).Interface("panic", p).Msg("analysis panicked")
			result, err = nil, entity.NewStageFailure(r.stage, fmt.Errorf("panic: %v", p))
		}
	}()

	src, err := matFromImage(img)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	original, err := resize(src, w, h)
	if err != nil {
		return nil, entity.NewStageFailure(stageResize, err)
	}
	defer original.Close()
	if original.Empty() || original.Cols() != w || original.Rows() != h {
		return nil, entity.NewStageFailure(stageResize, fmt.Errorf("resize to %dx%d failed", w, h))
	}

	// Close на незаполненном Mat безопасен.
	var balanced, enhanced, denoised, segmented, fg gocv.Mat
	defer func() {
		for _, m := range []*gocv.Mat{&balanced, &enhanced, &denoised, &segmented, &fg} {
			m.Close()
		}
	}()

	if err := r.step(entity.StepWhiteBalance, func() (entity.StepStatus, string, error) {
		var err error
		if balanced, err = whiteBalance(original); err != nil {
			return "", "", err
		}
		return entity.StepApplied, "gray world", nil
	}); err != nil {
		return nil, err
	}
	if err := r.step(entity.StepCLAHE, func() (entity.StepStatus, string, error) {
		var err error
		if enhanced, err = equalize(balanced); err != nil {
			return "", "", err
		}
		return entity.StepApplied, fmt.Sprintf("clip %.1f, grid %dx%d", claheClipLimit, claheTile, claheTile), nil
	}); err != nil {
		return nil, err
	}
	if err := r.step(entity.StepBilateralFilter, func() (entity.StepStatus, string, error) {
		var err error
		if denoised, err = denoise(enhanced); err != nil {
			return "", "", err
		}
		return entity.StepApplied, fmt.Sprintf("d=%d", bilateralDiameter), nil
	}); err != nil {
		return nil, err
	}

	isolated := false
	if err := r.step(entity.StepGrabCut, func() (entity.StepStatus, string, error) {
		if !opts.IsolateForeground {
			segmented = denoised.Clone()
			fg = filledMask(h, w, 255)
			return entity.StepSkipped, "isolation disabled", nil
		}
		s, m, segErr := isolateForeground(denoised)
		if segErr != nil {
			segmented = denoised.Clone()
			fg = filledMask(h, w, 255)
			r.trace.Note("foreground isolation failed, full frame used: " + segErr.Error())
			return entity.StepFallback, segErr.Error(), nil
		}
		segmented, fg, isolated = s, m, true
		return entity.StepApplied, fmt.Sprintf("%d iterations", grabCutIterations), nil
	}); err != nil {
		return nil, err
	}

	var raw, masks colorMats
	defer raw.Close()
	defer masks.Close()
	if err := r.step(entity.StepHSVSegmentation, func() (entity.StepStatus, string, error) {
		var err error
		if raw, err = thresholdColors(segmented); err != nil {
			return "", "", err
		}
		return entity.StepApplied, "", nil
	}); err != nil {
		return nil, err
	}
	if err := r.step(entity.StepMorphology, func() (entity.StepStatus, string, error) {
		var err error
		if masks, err = cleanMasks(raw); err != nil {
			return "", "", err
		}
		return entity.StepApplied, fmt.Sprintf("open+close %dx%d", morphKernel, morphKernel), nil
	}); err != nil {
		return nil, err
	}

	fgCount := gocv.CountNonZero(fg)
	ratios := entity.ColorRatios{
		Green:  entity.Percent(gocv.CountNonZero(masks.green), fgCount),
		Yellow: entity.Percent(gocv.CountNonZero(masks.yellow), fgCount),
		Brown:  entity.Percent(gocv.CountNonZero(masks.brown), fgCount),
	}

	grayMat := gocv.NewMat()
	defer grayMat.Close()
	if err := gocv.CvtColor(segmented, &grayMat, gocv.ColorBGRToGray); err != nil {
		return nil, entity.NewStageFailure(entity.StepLBP, fmt.Errorf("to gray: %w", err))
	}

	gray, err := grayFromMat(grayMat)
	if err != nil {
		return nil, entity.NewStageFailure(entity.StepLBP, err)
	}
	fgImg, err := grayFromMat(fg)
	if err != nil {
		return nil, entity.NewStageFailure(entity.StepHSVSegmentation, err)
	}

	f := a.extract(r, original, grayMat, gray, fgImg, masks)
	defer f.close()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}

	result = &entity.AnalysisResult{
		Width:              w,
		Height:             h,
		Foreground:         fgImg,
		ForegroundIsolated: isolated,
		Ratios:             ratios,
		EdgeDensity:        entity.Percent(gocv.CountNonZero(f.edges), fgCount),
		Texture:            f.texture,
		Spots:              f.spots,
	}

	if err := r.step(entity.StepHealthScoring, func() (entity.StepStatus, string, error) {
		result.Health = entity.AssessHealth(entity.HealthFeatures{
			Ratios:         ratios,
			TextureEntropy: f.texture.Entropy,
			EdgeDensity:    result.EdgeDensity,
			SpotSeverity:   float64(f.spots.Severity),
		})
		return entity.StepApplied, fmt.Sprintf("%.1f %s", result.Health.Score, result.Health.Grade), nil
	}); err != nil {
		return nil, err
	}

	if err := a.fillImages(result, masks, f); err != nil {
		return nil, err
	}
	if opts.KeepIntermediates {
		inter, err := intermediates(original, balanced, enhanced, denoised, segmented, gray)
		if err != nil {
			return nil, entity.NewStageFailure("intermediates", err)
		}
		result.Intermediates = inter
	}

	result.Steps = r.trace.Steps()
	result.Notes = r.trace.Notes()
	a.log.Info().
		Int("width", w).Int("height", h).
		Float64("score", result.Health.Score).
		Str("status", result.Health.Status).
		Int("spots", result.Spots.Total()).
		Msg("analysis finished")
	return result, nil
}

// features результаты параллельных экстракторов.
type features struct {
	edges   gocv.Mat
	texture entity.TextureDescriptor
	spots   entity.SpotSummary
	overlay gocv.Mat
	damage  gocv.Mat
	err     error
}

func (f *features) close() {
	for _, m := range []*gocv.Mat{&f.edges, &f.overlay, &f.damage} {
		m.Close()
	}
}

// Порядок записи этапов параллельной части в журнал.
const (
	slotEdges = iota
	slotTexture
	slotSpots
	slotHeatmap
	slotCount
)

var slotNames = [slotCount]string{
	entity.StepCannyEdges,
	entity.StepLBP,
	entity.StepDiseaseSpots,
	entity.StepDamageHeatmap,
}

// extract запускает четыре экстрактора параллельно. Все входы только читаются.
func (a *Analyzer) extract(r *run, original, grayMat gocv.Mat, gray, fg *image.Gray, masks colorMats) *features {
	f := &features{}
	var (
		wg    sync.WaitGroup
		steps [slotCount]entity.ProcessingStep
		errs  [slotCount]error
		notes [slotCount]string
	)

	launch := func(slot int, fn func() (entity.StepStatus, string, error)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if p := recover(); p != nil {
					errs[slot] = entity.NewStageFailure(slotNames[slot], fmt.Errorf("panic: %v", p))
				}
			}()
			st := startStage(slotNames[slot])
			status, detail, err := fn()
			if err != nil {
				errs[slot] = err
				return
			}
			steps[slot] = st.done(status, detail)
		}()
	}

	launch(slotEdges, func() (entity.StepStatus, string, error) {
		edges, err := detectEdges(grayMat)
		if err != nil {
			return "", "", err
		}
		f.edges = edges
		return entity.StepApplied, fmt.Sprintf("thresholds %.0f/%.0f", cannyLow, cannyHigh), nil
	})
	launch(slotTexture, func() (entity.StepStatus, string, error) {
		desc, err := a.texture.Describe(gray, fg)
		if errors.Is(err, entity.ErrTextureUnavailable) {
			notes[slotTexture] = "texture analysis unavailable, entropy defaults to 0"
			f.texture = entity.TextureDescriptor{}
			return entity.StepDegraded, err.Error(), nil
		}
		if err != nil {
			return "", "", err
		}
		f.texture = desc
		return entity.StepApplied, fmt.Sprintf("entropy %.3f", desc.Entropy), nil
	})
	launch(slotSpots, func() (entity.StepStatus, string, error) {
		f.spots = analyzeSpots(masks.brown)
		return entity.StepApplied, fmt.Sprintf("%d spots, severity %d", f.spots.Total(), f.spots.Severity), nil
	})
	launch(slotHeatmap, func() (entity.StepStatus, string, error) {
		overlay, damage, err := buildHeatmap(original, masks.yellow, masks.brown)
		if err != nil {
			notes[slotHeatmap] = "damage heatmap unavailable, original frame returned"
			f.overlay = original.Clone()
			f.damage = filledMask(original.Rows(), original.Cols(), 0)
			return entity.StepDegraded, err.Error(), nil
		}
		f.overlay, f.damage = overlay, damage
		return entity.StepApplied, "", nil
	})
	wg.Wait()

	for slot := 0; slot < slotCount; slot++ {
		if errs[slot] != nil {
			f.err = errs[slot]
			if entity.KindOf(f.err) == "" {
				f.err = entity.NewStageFailure(slotNames[slot], f.err)
			}
			return f
		}
		r.record(steps[slot])
		if notes[slot] != "" {
			r.trace.Note(notes[slot])
		}
	}
	return f
}

// fillImages переводит маски и карты в изображения результата.
func (a *Analyzer) fillImages(result *entity.AnalysisResult, masks colorMats, f *features) error {
	var err error
	convert := func(stage string, m gocv.Mat) *image.Gray {
		if err != nil {
			return nil
		}
		g, convErr := grayFromMat(m)
		if convErr != nil {
			err = entity.NewStageFailure(stage, convErr)
		}
		return g
	}

	result.Masks = entity.ColorMasks{
		Green:  convert(entity.StepMorphology, masks.green),
		Yellow: convert(entity.StepMorphology, masks.yellow),
		Brown:  convert(entity.StepMorphology, masks.brown),
	}
	result.EdgeMask = convert(entity.StepCannyEdges, f.edges)
	result.DamageMap = convert(entity.StepDamageHeatmap, f.damage)
	if err != nil {
		return err
	}

	overlay, convErr := imageFromMat(f.overlay)
	if convErr != nil {
		return entity.NewStageFailure(entity.StepDamageHeatmap, convErr)
	}
	result.Heatmap = overlay
	return nil
}

func intermediates(original, balanced, enhanced, denoised, segmented gocv.Mat, gray *image.Gray) (*entity.Intermediates, error) {
	out := &entity.Intermediates{Gray: gray}
	targets := []struct {
		m   gocv.Mat
		dst *image.Image
	}{
		{original, &out.Original},
		{balanced, &out.WhiteBalanced},
		{enhanced, &out.Enhanced},
		{denoised, &out.Denoised},
		{segmented, &out.Segmented},
	}
	for _, t := range targets {
		img, err := imageFromMat(t.m)
		if err != nil {
			return nil, err
		}
		*t.dst = img
	}
	return out, nil
}
