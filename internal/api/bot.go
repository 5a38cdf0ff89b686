package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	app "leaf-health-bot/internal/application"
	"leaf-health-bot/internal/domain/entity"
	"leaf-health-bot/internal/domain/port"
)

const (
	msgStart = `👋 Привет! Я бот для оценки здоровья листьев растений.

📸 Отправьте мне фото листа, и я посчитаю балл здоровья, найду пятна и покажу карту повреждений.

📋 Команды:
/check — начать проверку листа
/plants — растения в справочнике
/plant <название> — выбрать растение для советов
/isolate — включить или выключить отделение листа от фона
/explain — как устроен анализ
/help — справка
/cancel — отменить текущую операцию`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ Выберите растение: /plant monstera (необязательно)
2️⃣ Отправьте фото листа
3️⃣ Вы получите отчёт и тепловую карту повреждений

💡 Рекомендации:
• Снимайте лист целиком при дневном свете
• Используйте однотонный фон
• Для пёстрого фона включите /isolate

📋 Команды:
/check — начать проверку
/plants — список растений
/plant <название> — выбрать растение, /plant off — сбросить выбор
/explain [этап] — пояснение к этапу обработки
/cancel — отменить операцию`

	msgAwaitingPhoto   = "📸 Отправьте фото листа для проверки."
	msgCancelled       = "❌ Операция отменена. Отправьте /check для новой проверки."
	msgSendPhoto       = "📸 Пожалуйста, отправьте фото листа для проверки."
	msgUnknownCommand  = "❓ Неизвестная команда. Используйте /help для справки."
	msgProcessing      = "⏳ Анализирую лист..."
	msgBusy            = "⏳ Предыдущее фото ещё анализируется, подождите."
	msgProcessingError = "⚠️ Не удалось обработать изображение. Попробуйте сделать другое фото."
	msgInvalidImage    = "⚠️ Не удалось прочитать изображение. Отправьте фото в формате JPEG или PNG."
	msgTimeout         = "⌛ Анализ занял слишком много времени. Попробуйте фото меньшего размера."
	msgPlantUsage      = "🪴 Укажите растение: /plant monstera. Список: /plants"
	msgPlantCleared    = "🪴 Выбор растения сброшен."
	msgIsolationOn     = "✂️ Отделение листа от фона включено."
	msgIsolationOff    = "🖼️ Отделение листа от фона выключено, анализируется весь кадр."
	msgInternalError   = "⚠️ Что-то пошло не так. Попробуйте ещё раз."
	heatmapCaption     = "🔥 Карта повреждений: красным отмечены бурые и жёлтые участки."
)

const (
	downloadTimeout = 30 * time.Second
	// maxConcurrentUpdates ограничивает число одновременно обрабатываемых сообщений.
	maxConcurrentUpdates = 8
)

// botAPI используемая часть Telegram Bot API.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot представляет Telegram-бота
type Bot struct {
	api       botAPI
	users     *app.UserService
	diagnosis *app.DiagnosisService
	plants    port.KnowledgeBase
	http      *resty.Client
	maxPhoto  int64
	log       zerolog.Logger
	wg        sync.WaitGroup
	sem       chan struct{}
}

// NewBot создаёт нового бота
func NewBot(
	token string,
	users *app.UserService,
	diagnosis *app.DiagnosisService,
	plants port.KnowledgeBase,
	maxPhoto int64,
	log zerolog.Logger,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	b := newBot(api, users, diagnosis, plants, maxPhoto, log)
	b.log.Info().Str("account", api.Self.UserName).Msg("authorized")
	return b, nil
}

func newBot(
	api botAPI,
	users *app.UserService,
	diagnosis *app.DiagnosisService,
	plants port.KnowledgeBase,
	maxPhoto int64,
	log zerolog.Logger,
) *Bot {
	return &Bot{
		api:       api,
		users:     users,
		diagnosis: diagnosis,
		plants:    plants,
		http:      resty.New().SetTimeout(downloadTimeout),
		maxPhoto:  maxPhoto,
		log:       log.With().Str("component", "telegram").Logger(),
		sem:       make(chan struct{}, maxConcurrentUpdates),
	}
}

// Run обрабатывает сообщения до отмены ctx и дожидается начатых анализов.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.wg.Wait()
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			b.log.Info().Msg("stopping bot")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil || update.Message.From == nil {
				continue
			}

			select {
			case b.sem <- struct{}{}:
			case <-ctx.Done():
				b.log.Info().Msg("stopping bot")
				return nil
			}
			b.wg.Add(1)
			go func(msg *tgbotapi.Message) {
				defer func() {
					<-b.sem
					b.wg.Done()
				}()
				b.handleMessage(ctx, msg)
			}(update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	user, err := b.users.Get(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		b.log.Error().Err(err).Int64("user_id", msg.From.ID).Msg("get user")
		b.sendMessage(msg.Chat.ID, msgInternalError)
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg, user)
		return
	}

	if fileID, ok := imageFileID(msg); ok {
		b.handlePhoto(ctx, msg, user, fileID)
		return
	}

	b.sendMessage(msg.Chat.ID, msgSendPhoto)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	chatID := msg.Chat.ID
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start":
		b.updateUser(ctx, msg, msgStart, b.users.Cancel)

	case "help":
		b.sendMessage(chatID, msgHelp)

	case "check":
		b.updateUser(ctx, msg, msgAwaitingPhoto, b.users.BeginCheck)

	case "cancel":
		b.updateUser(ctx, msg, msgCancelled, b.users.Cancel)

	case "plants":
		b.sendMessage(chatID, FormatPlants(b.plants.Plants()))

	case "plant":
		b.handlePlant(ctx, msg, user, args)

	case "isolate":
		updated, err := b.users.ToggleIsolation(ctx, user.ID, chatID)
		if err != nil {
			b.log.Error().Err(err).Int64("user_id", user.ID).Msg("toggle isolation")
			b.sendMessage(chatID, msgInternalError)
			return
		}
		if updated.IsolateForeground {
			b.sendMessage(chatID, msgIsolationOn)
		} else {
			b.sendMessage(chatID, msgIsolationOff)
		}

	case "explain":
		b.handleExplain(chatID, args)

	default:
		b.sendMessage(chatID, msgUnknownCommand)
	}
}

func (b *Bot) updateUser(
	ctx context.Context,
	msg *tgbotapi.Message,
	reply string,
	apply func(ctx context.Context, userID, chatID int64) (*entity.User, error),
) {
	if _, err := apply(ctx, msg.From.ID, msg.Chat.ID); err != nil {
		b.log.Error().Err(err).Int64("user_id", msg.From.ID).Msg("update user")
		b.sendMessage(msg.Chat.ID, msgInternalError)
		return
	}
	b.sendMessage(msg.Chat.ID, reply)
}

func (b *Bot) handlePlant(ctx context.Context, msg *tgbotapi.Message, user *entity.User, query string) {
	chatID := msg.Chat.ID

	switch strings.ToLower(query) {
	case "":
		if p, ok := b.plants.Plant(user.PlantID); ok {
			b.sendMessage(chatID, "Выбрано растение:\n\n"+FormatPlant(p))
			return
		}
		b.sendMessage(chatID, msgPlantUsage)
		return
	case "off", "none":
		if _, err := b.users.SelectPlant(ctx, user.ID, chatID, ""); err != nil {
			b.log.Error().Err(err).Int64("user_id", user.ID).Msg("clear plant")
			b.sendMessage(chatID, msgInternalError)
			return
		}
		b.sendMessage(chatID, msgPlantCleared)
		return
	}

	p, err := b.plants.Lookup(query)
	if err != nil {
		b.sendMessage(chatID, fmt.Sprintf("🔍 Растение «%s» не найдено. Список: /plants", query))
		return
	}
	if _, err := b.users.SelectPlant(ctx, user.ID, chatID, p.ID); err != nil {
		b.log.Error().Err(err).Int64("user_id", user.ID).Msg("select plant")
		b.sendMessage(chatID, msgInternalError)
		return
	}
	b.sendMessage(chatID, "✅ Выбрано растение:\n\n"+FormatPlant(p))
}

func (b *Bot) handleExplain(chatID int64, step string) {
	if step == "" {
		b.sendMessage(chatID, FormatTechniques(b.plants.Techniques()))
		return
	}
	t, ok := b.plants.Technique(strings.ToLower(step))
	if !ok {
		b.sendMessage(chatID, fmt.Sprintf("❓ Этап «%s» не найден.\n\n%s", step, FormatTechniques(b.plants.Techniques())))
		return
	}
	b.sendMessage(chatID, FormatTechnique(t))
}

// handlePhoto обрабатывает входящее фото
func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message, user *entity.User, fileID string) {
	chatID := msg.Chat.ID
	d, err := b.diagnosis.DiagnosePhoto(ctx, user.ID, chatID, func(ctx context.Context) ([]byte, error) {
		b.sendMessage(chatID, msgProcessing)
		return b.downloadFile(ctx, fileID)
	})
	if errors.Is(err, app.ErrBusy) {
		b.sendMessage(chatID, msgBusy)
		return
	}
	if err != nil {
		b.log.Warn().Err(err).Int64("user_id", user.ID).Msg("diagnose photo")
		b.sendMessage(chatID, failureMessage(err))
		return
	}

	b.sendMessage(chatID, FormatDiagnosis(d))
	b.sendPhoto(chatID, d.Heatmap, heatmapCaption)
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	fileURL, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	resp, err := b.http.R().SetContext(ctx).Get(fileURL)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode())
	}

	data := resp.Body()
	if b.maxPhoto > 0 && int64(len(data)) > b.maxPhoto {
		return nil, entity.NewInvalidImage("photo is %d bytes, limit %d", len(data), b.maxPhoto)
	}
	return data, nil
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error().Err(err).Int64("chat_id", chatID).Msg("send message")
	}
}

func (b *Bot) sendPhoto(chatID int64, jpeg []byte, caption string) {
	if len(jpeg) == 0 {
		return
	}
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "heatmap.jpg", Bytes: jpeg})
	photo.Caption = caption
	if _, err := b.api.Send(photo); err != nil {
		b.log.Error().Err(err).Int64("chat_id", chatID).Msg("send photo")
	}
}

// imageFileID выбирает фото наибольшего размера или документ-изображение.
func imageFileID(msg *tgbotapi.Message) (string, bool) {
	if len(msg.Photo) > 0 {
		return msg.Photo[len(msg.Photo)-1].FileID, true
	}
	if msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "image/") {
		return msg.Document.FileID, true
	}
	return "", false
}

func failureMessage(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return msgTimeout
	case errors.Is(err, entity.ErrInvalidImage):
		return msgInvalidImage
	case errors.Is(err, entity.ErrUnknownPlant):
		return msgPlantUsage
	default:
		return msgProcessingError
	}
}
