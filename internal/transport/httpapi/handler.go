package httpapi

import (
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	app "leaf-health-bot/internal/application"
	"leaf-health-bot/internal/domain/entity"
	"leaf-health-bot/internal/domain/port"
)

// Options параметры HTTP API.
type Options struct {
	MaxUploadBytes    int64
	IsolateForeground bool // значение по умолчанию для поля isolate
}

type handler struct {
	diagnosis *app.DiagnosisService
	plants    port.KnowledgeBase
	codec     port.ImageCodec
	opts      Options
	log       zerolog.Logger
}

// NewHandler собирает gin-роутер API.
func NewHandler(
	diagnosis *app.DiagnosisService,
	plants port.KnowledgeBase,
	codec port.ImageCodec,
	opts Options,
	log zerolog.Logger,
) http.Handler {
	h := &handler{
		diagnosis: diagnosis,
		plants:    plants,
		codec:     codec,
		opts:      opts,
		log:       log.With().Str("component", "http").Logger(),
	}

	r := gin.New()
	r.Use(
		gin.Recovery(),
		requestLogger(h.log),
		requestSizeLimiter(opts.MaxUploadBytes),
	)

	r.GET("/health", healthCheck)
	r.GET("/plants", h.listPlants)
	r.GET("/plants/:id", h.getPlant)
	r.GET("/techniques", h.listTechniques)
	r.POST("/analyze", h.analyze)
	r.GET("/reports/:id", h.getReport)
	r.GET("/reports/:id/heatmap", h.getHeatmap)

	return r
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "available",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *handler) listPlants(c *gin.Context) {
	plants := h.plants.Plants()
	refs := make([]PlantRef, 0, len(plants))
	for _, p := range plants {
		refs = append(refs, PlantRef{ID: p.ID, Name: p.Name})
	}
	c.JSON(http.StatusOK, refs)
}

func (h *handler) getPlant(c *gin.Context) {
	id := c.Param("id")
	if p, ok := h.plants.Plant(id); ok {
		c.JSON(http.StatusOK, p)
		return
	}
	p, err := h.plants.Lookup(id)
	if err != nil {
		respondError(c, StatusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *handler) listTechniques(c *gin.Context) {
	c.JSON(http.StatusOK, h.plants.Techniques())
}

func (h *handler) analyze(c *gin.Context) {
	data, err := readUpload(c, "image")
	if err != nil {
		code := StatusFor(err)
		if code == http.StatusInternalServerError {
			code = http.StatusBadRequest
		}
		respondError(c, code, err)
		return
	}

	isolate := h.opts.IsolateForeground
	if v := c.PostForm("isolate"); v != "" {
		isolate, err = strconv.ParseBool(v)
		if err != nil {
			respondError(c, http.StatusBadRequest, fmt.Errorf("isolate: %w", err))
			return
		}
	}
	withImages := c.Query("include") == "images"

	d, err := h.diagnosis.Diagnose(c.Request.Context(), app.DiagnosisRequest{
		Image: data,
		Plant: c.PostForm("plant"),
		Options: entity.AnalysisOptions{
			IsolateForeground: isolate,
			KeepIntermediates: withImages,
		},
	})
	if err != nil {
		respondError(c, StatusFor(err), err)
		return
	}

	resp := newAnalysisResponse(d)
	if withImages {
		resp.Images = h.encodeImages(d)
	}
	c.JSON(http.StatusOK, resp)
}

// loadReport ищет отчёт по UUID из пути. Другие идентификаторы в архив не передаются.
func (h *handler) loadReport(c *gin.Context) (*entity.ArchivedReport, error) {
	raw := c.Param("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, entity.NewReportNotFound(raw)
	}
	return h.diagnosis.Report(c.Request.Context(), id.String())
}

func (h *handler) getReport(c *gin.Context) {
	report, err := h.loadReport(c)
	if err != nil {
		respondError(c, StatusFor(err), err)
		return
	}
	c.Data(http.StatusOK, "application/json", report.Summary)
}

func (h *handler) getHeatmap(c *gin.Context) {
	report, err := h.loadReport(c)
	if err != nil {
		respondError(c, StatusFor(err), err)
		return
	}
	c.Data(http.StatusOK, "image/jpeg", report.Heatmap)
}

// encodeImages кодирует тепловую карту, маски и промежуточные кадры в base64 JPEG.
func (h *handler) encodeImages(d *app.Diagnosis) map[string]string {
	r := d.Result
	images := map[string]string{
		"heatmap": base64.StdEncoding.EncodeToString(d.Heatmap),
	}

	named := map[string]image.Image{}
	addGray := func(name string, g *image.Gray) {
		if g != nil {
			named[name] = g
		}
	}
	addGray("damage_map", r.DamageMap)
	addGray("edges", r.EdgeMask)
	addGray("foreground", r.Foreground)
	addGray("green_mask", r.Masks.Green)
	addGray("yellow_mask", r.Masks.Yellow)
	addGray("brown_mask", r.Masks.Brown)
	if in := r.Intermediates; in != nil {
		for name, img := range map[string]image.Image{
			"original":       in.Original,
			"white_balanced": in.WhiteBalanced,
			"enhanced":       in.Enhanced,
			"denoised":       in.Denoised,
			"segmented":      in.Segmented,
		} {
			if img != nil {
				named[name] = img
			}
		}
		addGray("gray", in.Gray)
	}

	for name, img := range named {
		data, err := h.codec.EncodeJPEG(img)
		if err != nil {
			h.log.Warn().Err(err).Str("image", name).Msg("encode image")
			continue
		}
		images[name] = base64.StdEncoding.EncodeToString(data)
	}
	return images
}

func readUpload(c *gin.Context, field string) ([]byte, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return nil, err
		}
		return nil, entity.NewInvalidImage("form field %q: %v", field, err)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	return io.ReadAll(f)
}

// Middleware

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		ev := log.Info()
		switch {
		case status >= http.StatusInternalServerError:
			ev = log.Error()
		case status >= http.StatusBadRequest:
			ev = log.Warn()
		}
		if len(c.Errors) > 0 {
			ev = ev.Err(c.Errors.Last().Err)
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Str("ip", c.ClientIP()).
			Dur("took", time.Since(start)).
			Msg("request")
	}
}
