package types

import (
	"time"

	"gorm.io/gorm"
)

// Trade direction values
const (
	DirectionLong  = "long"
	DirectionShort = "short"
)

// Trade status values
const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// Trade event types. Buy and Add both increase the position, Sell and
// Remove both decrease it.
const (
	EventBuy    = "buy"
	EventAdd    = "add"
	EventSell   = "sell"
	EventRemove = "remove"
)

// User represents a registered user account
type User struct {
	gorm.Model   `json:"-"`
	UserID       string    `gorm:"uniqueIndex" json:"user_id"`
	Email        string    `gorm:"uniqueIndex" json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Trade is a journaled position. The static fields are set at creation;
// everything from EntryPrice down is derived from the trade's event ledger
// and is overwritten on every reconciliation. Clients cannot set derived
// fields directly.
type Trade struct {
	gorm.Model `json:"-"`
	TradeID    string `gorm:"uniqueIndex" json:"trade_id"`
	UserID     string `gorm:"index" json:"user_id"`
	AccountID  string `gorm:"index" json:"account_id"`

	Symbol           string  `json:"symbol"`
	Direction        string  `json:"direction"` // long or short
	Strategy         string  `json:"strategy"`
	ConfidenceLevel  int     `json:"confidence_level"`
	TargetPrice      float64 `json:"target_price"`
	InitialStopPrice float64 `json:"initial_stop_price"`

	// Derived from the event ledger
	EntryPrice        float64 `json:"entry_price"` // volume-weighted average buy price
	Quantity          float64 `json:"quantity"`    // open units: total bought minus total sold
	TotalQuantity     float64 `json:"total_quantity"`
	PositionSize      float64 `json:"position_size"`
	TotalInvestment   float64 `json:"total_investment"`
	ProfitLoss        float64 `json:"profit_loss"` // realized, net of commission
	TotalCommission   float64 `json:"total_commission"`
	Status            string  `json:"status"` // open or closed
	StopPrice         float64 `json:"stop_price"`
	RiskAmount        float64 `json:"risk_amount"`
	IsPartiallyClosed bool    `json:"is_partially_closed"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TradeEvent is a single ledger entry against a trade. Events are ordered
// by Date, not by insertion order. Commission is the structured amount for
// rows written by this system; legacy rows carry it embedded in Notes as
// "Commission: $<amount>" and are backfilled by migration.
type TradeEvent struct {
	gorm.Model      `json:"-"`
	EventID         string    `gorm:"uniqueIndex" json:"event_id"`
	TradeID         string    `gorm:"index" json:"trade_id"`
	Type            string    `json:"type"` // buy, add, sell
	Date            time.Time `json:"date"`
	Quantity        float64   `json:"quantity"`
	Price           float64   `json:"price"`
	StopLossAtEvent float64   `json:"stop_loss_at_event"`
	Commission      float64   `json:"commission"`
	Notes           string    `json:"notes"`
	ScreenshotURL   string    `json:"screenshot_url"`
}

// Account groups trades and carries the sizing and risk settings the UI
// uses when proposing position sizes.
type Account struct {
	gorm.Model               `json:"-"`
	AccountID                string    `gorm:"uniqueIndex" json:"account_id"`
	UserID                   string    `gorm:"index" json:"user_id"`
	Name                     string    `json:"name"`
	Currency                 string    `json:"currency"`
	AccountSize              float64   `json:"account_size"`
	DefaultRiskPercentage    float64   `json:"default_risk_percentage"`
	MaxAccountRiskPercentage float64   `json:"max_account_risk_percentage"`
	CommissionFee            float64   `json:"commission_fee"`
	CreatedAt                time.Time `json:"created_at"`
	UpdatedAt                time.Time `json:"updated_at"`
}

// JournalEntry is a dated free-form journal record
type JournalEntry struct {
	gorm.Model     `json:"-"`
	EntryID        string    `gorm:"uniqueIndex" json:"entry_id"`
	UserID         string    `gorm:"index" json:"user_id"`
	AccountID      string    `gorm:"index" json:"account_id"`
	Date           time.Time `json:"date"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	Mood           string    `json:"mood"`
	LessonsLearned string    `json:"lessons_learned"`
	ScreenshotURLs string    `json:"screenshot_urls"` // comma-separated attachment URLs
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// WatchlistNote is a symbol under observation with a sentiment and notes
type WatchlistNote struct {
	gorm.Model     `json:"-"`
	NoteID         string    `gorm:"uniqueIndex" json:"note_id"`
	UserID         string    `gorm:"index" json:"user_id"`
	AccountID      string    `gorm:"index" json:"account_id"`
	Symbol         string    `json:"symbol"`
	Date           time.Time `json:"date"`
	Price          float64   `json:"price"`
	Sentiment      string    `json:"sentiment"`
	Notes          string    `json:"notes"`
	ScreenshotURLs string    `json:"screenshot_urls"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// LearningMaterial is a book, video, course or document tracked by the user
type LearningMaterial struct {
	gorm.Model       `json:"-"`
	MaterialID       string    `gorm:"uniqueIndex" json:"material_id"`
	UserID           string    `gorm:"index" json:"user_id"`
	AccountID        string    `gorm:"index" json:"account_id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Type             string    `json:"type"` // book, video, course, document
	Topic            string    `json:"topic"`
	Author           string    `json:"author"`
	ExternalURL      string    `json:"external_url"`
	FileURL          string    `json:"file_url"`
	CompletionStatus string    `json:"completion_status"` // not_started, in_progress, completed
	Rating           int       `json:"rating"`
	Tags             string    `json:"tags"`
	Notes            string    `json:"notes"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// UserPreference is a versioned key/value settings record. It replaces the
// ad-hoc localStorage reads of the legacy client with a schema-versioned
// payload stored per user and key.
type UserPreference struct {
	gorm.Model    `json:"-"`
	UserID        string    `gorm:"index:idx_user_preferences_user_key,unique" json:"user_id"`
	Key           string    `gorm:"index:idx_user_preferences_user_key,unique" json:"key"`
	SchemaVersion int       `json:"schema_version"`
	Value         string    `json:"value"` // JSON payload
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
