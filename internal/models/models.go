package models

type Game struct {
	ID          int64
	Name        string
	Date        string // ДД.ММ.ГГГГ, как вводит админ
	Time        string
	Place       string
	Price       string
	Description string
	LimitPlaces int
	Hidden      bool
	CreatedAt   string
}

// Lead - заявка: юзер прошёл запись и нажал «Подтвердить».
// GameID становится nil после удаления игры, сама заявка остаётся.
type Lead struct {
	ID           int64
	TgID         int64
	Username     string
	Name         string
	Phone        string
	GameID       *int64
	GameName     string
	Participants int
	Comment      string
	UTMSource    string
	UTMMedium    string
	UTMCampaign  string
	Status       string // new | contacted | paid
	CreatedAt    string
}

type Question struct {
	ID        int64
	TgID      int64
	Username  string
	Name      string
	Text      string
	CreatedAt string
}

type HolidayOrder struct {
	ID        int64
	TgID      int64
	Username  string
	Name      string
	Phone     string
	CreatedAt string
}

// Scenario - сценарий: именованная подборка сюжетов (Story) по порядку.
type Scenario struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   string
}

type Story struct {
	ID         int64
	Title      string
	Content    string
	ImageURL   string // URL или telegram file_id
	OrderNum   int
	Hidden     bool
	ScenarioID *int64
	CreatedAt  string
}

type UserUTM struct {
	Source   string
	Medium   string
	Campaign string
}

// FormatInfo - единственный экран «Что это за формат?», правится из админки.
type FormatInfo struct {
	Text     string
	ImageURL string
	VideoURL string
}

// UserExportRow - агрегат по одному пользователю для CSV-выгрузки.
type UserExportRow struct {
	TgID         int64
	Username     string
	FirstName    string
	LastName     string
	FirstSeen    string
	LastSeen     string
	EventCount   int
	EventsSample string
	Phone        string
}

// Патчи частичного обновления: nil - поле не трогаем.

type GamePatch struct {
	Name        *string
	Date        *string
	Time        *string
	Place       *string
	Price       *string
	Description *string
	LimitPlaces *int
}

type StoryPatch struct {
	Title    *string
	Content  *string
	ImageURL *string
	OrderNum *int
}

type ScenarioPatch struct {
	Name        *string
	Description *string
}

type FormatInfoPatch struct {
	Text     *string
	ImageURL *string
	VideoURL *string
}

const (
	LeadStatusNew       = "new"
	LeadStatusContacted = "contacted"
	LeadStatusPaid      = "paid"
)

// NextLeadStatus - цикл статусов для кнопки в админке.
func NextLeadStatus(cur string) string {
	switch cur {
	case LeadStatusNew:
		return LeadStatusContacted
	case LeadStatusContacted:
		return LeadStatusPaid
	default:
		return LeadStatusNew
	}
}
