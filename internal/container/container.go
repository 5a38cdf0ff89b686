package container

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/garyburd/redigo/redis"
	"github.com/rs/zerolog"

	"leaf-health-bot/config"
	telegram "leaf-health-bot/internal/api"
	app "leaf-health-bot/internal/application"
	"leaf-health-bot/internal/domain/port"
	"leaf-health-bot/internal/infrastructure/imagecodec"
	"leaf-health-bot/internal/infrastructure/knowledge"
	"leaf-health-bot/internal/infrastructure/storage"
	"leaf-health-bot/internal/infrastructure/vision"
	"leaf-health-bot/internal/logger"
	"leaf-health-bot/internal/transport/httpapi"
)

// Container хранит собранные зависимости процесса.
type Container struct {
	Config           *config.Config
	Knowledge        port.KnowledgeBase
	UserService      *app.UserService
	DiagnosisService *app.DiagnosisService

	codec port.ImageCodec
	log   zerolog.Logger
	pool  *redis.Pool
}

// New собирает сервисы по конфигурации. Хранилища выбираются по наличию адресов.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Container, error) {
	clog := logger.Component(log, "container")

	texture, err := vision.NewTextureAnalyzer(cfg.TextureBackend)
	if err != nil {
		return nil, err
	}
	analyzer := vision.NewAnalyzer(texture, log)

	catalog, err := knowledge.Load()
	if err != nil {
		return nil, fmt.Errorf("load knowledge base: %w", err)
	}

	c := &Container{
		Config:    cfg,
		Knowledge: catalog,
		codec:     imagecodec.Codec{},
		log:       log,
	}

	var users port.UserRepository
	if cfg.RedisAddr != "" {
		c.pool = storage.NewRedisPool(cfg.RedisAddr)
		users = storage.NewRedisUserRepository(c.pool, cfg.SessionTTL)
		clog.Info().Str("addr", cfg.RedisAddr).Msg("sessions in redis")
	} else {
		users = storage.NewMemoryUserRepository()
		clog.Info().Msg("sessions in memory")
	}

	var archive port.ReportArchive
	if cfg.AzureConnectionString != "" {
		archive, err = storage.NewAzureReportArchive(ctx, cfg.AzureConnectionString, cfg.AzureContainer)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("report archive: %w", err)
		}
		clog.Info().Str("container", cfg.AzureContainer).Msg("reports in azure blob storage")
	} else {
		archive = storage.NewMemoryReportArchive(cfg.ArchiveCapacity)
		clog.Info().Int("capacity", cfg.ArchiveCapacity).Msg("reports in memory")
	}

	c.UserService = app.NewUserService(users)
	c.DiagnosisService = app.NewDiagnosisService(
		c.UserService,
		analyzer,
		c.codec,
		catalog,
		app.NewKnowledgeAdvisor(),
		archive,
		cfg.AnalysisTimeout,
		log,
	)
	return c, nil
}

// HTTPHandler возвращает роутер HTTP API.
func (c *Container) HTTPHandler() http.Handler {
	return httpapi.NewHandler(c.DiagnosisService, c.Knowledge, c.codec, httpapi.Options{
		MaxUploadBytes:    c.Config.MaxUploadBytes,
		IsolateForeground: c.Config.IsolateForeground,
	}, c.log)
}

// NewBot подключается к Telegram.
func (c *Container) NewBot() (*telegram.Bot, error) {
	return telegram.NewBot(c.Config.TelegramToken, c.UserService, c.DiagnosisService, c.Knowledge, c.Config.MaxUploadBytes, c.log)
}

// Close освобождает соединения с внешними хранилищами.
func (c *Container) Close() error {
	var errs []error
	if c.pool != nil {
		errs = append(errs, c.pool.Close())
	}
	return errors.Join(errs...)
}
