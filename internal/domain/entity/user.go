package entity

// UserState состояние пользователя в диалоге
type UserState string

const (
	StateMainMenu      UserState = "main_menu"      // В главном меню
	StateAwaitingPhoto UserState = "awaiting_photo" // Ожидание фото листа
	StateProcessing    UserState = "processing"     // Анализ изображения
)

// User представляет пользователя бота
type User struct {
	ID                int64     `json:"id"`                 // Telegram User ID
	ChatID            int64     `json:"chat_id"`            // Telegram Chat ID
	State             UserState `json:"state"`              // Текущее состояние пользователя
	PlantID           string    `json:"plant_id,omitempty"` // Выбранное растение
	IsolateForeground bool      `json:"isolate_foreground"` // Отделять лист от фона
}

// NewUser создаёт нового пользователя с начальным состоянием
func NewUser(userID, chatID int64) *User {
	return &User{
		ID:     userID,
		ChatID: chatID,
		State:  StateMainMenu,
	}
}

// SetState обновляет состояние пользователя
func (u *User) SetState(state UserState) {
	u.State = state
}

// SelectPlant запоминает выбранное растение
func (u *User) SelectPlant(plantID string) {
	u.PlantID = plantID
}

// ToggleIsolation переключает отделение фона и возвращает новое значение
func (u *User) ToggleIsolation() bool {
	u.IsolateForeground = !u.IsolateForeground
	return u.IsolateForeground
}
