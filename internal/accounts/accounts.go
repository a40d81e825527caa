// Package accounts manages trading accounts and per-user preferences.
// Preferences replace the legacy client's scattered localStorage reads
// with versioned JSON payloads stored per user and key.
package accounts

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zyrticx/tradesmart-api/internal/types"
	"github.com/zyrticx/tradesmart-api/pkg/response"
)

var (
	ErrAccountNotFound = errors.New("account no longer exists")
	ErrNameTaken       = errors.New("account name already exists")
)

// PreferenceSchemaVersion is bumped whenever the shape of a stored
// preference payload changes
const PreferenceSchemaVersion = 1

// Service handles account and preference operations
type Service struct {
	db *Database
}

// NewService creates a new accounts service with the given database connection
func NewService(gormDB *gorm.DB) *Service {
	return &Service{db: NewDatabase(gormDB)}
}

// NewAccount carries the client-settable account fields
type NewAccount struct {
	Name                     string  `json:"name" binding:"required"`
	Currency                 string  `json:"currency"`
	AccountSize              float64 `json:"account_size"`
	DefaultRiskPercentage    float64 `json:"default_risk_percentage"`
	MaxAccountRiskPercentage float64 `json:"max_account_risk_percentage"`
	CommissionFee            float64 `json:"commission_fee"`
}

// CreateAccount registers a new trading account. Names are unique per user.
func (s *Service) CreateAccount(userID string, req NewAccount) (*types.Account, error) {
	existing, err := s.db.GetAccountByName(req.Name, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrNameTaken
	}

	if req.Currency == "" {
		req.Currency = "USD"
	}

	account := &types.Account{
		AccountID:                uuid.New().String(),
		UserID:                   userID,
		Name:                     req.Name,
		Currency:                 req.Currency,
		AccountSize:              req.AccountSize,
		DefaultRiskPercentage:    req.DefaultRiskPercentage,
		MaxAccountRiskPercentage: req.MaxAccountRiskPercentage,
		CommissionFee:            req.CommissionFee,
		CreatedAt:                time.Now(),
		UpdatedAt:                time.Now(),
	}
	if err := s.db.CreateAccount(account); err != nil {
		return nil, err
	}
	return account, nil
}

// GetAccount retrieves one of the user's accounts
func (s *Service) GetAccount(accountID, userID string) (*types.Account, error) {
	account, err := s.db.GetAccount(accountID, userID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

// ListAccounts returns all of the user's accounts
func (s *Service) ListAccounts(userID string) ([]types.Account, error) {
	return s.db.ListAccounts(userID)
}

// UpdateAccount edits an account's settings
func (s *Service) UpdateAccount(accountID, userID string, req NewAccount) (*types.Account, error) {
	account, err := s.db.GetAccount(accountID, userID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}

	if req.Name != "" && req.Name != account.Name {
		existing, err := s.db.GetAccountByName(req.Name, userID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, ErrNameTaken
		}
		account.Name = req.Name
	}
	if req.Currency != "" {
		account.Currency = req.Currency
	}
	account.AccountSize = req.AccountSize
	account.DefaultRiskPercentage = req.DefaultRiskPercentage
	account.MaxAccountRiskPercentage = req.MaxAccountRiskPercentage
	account.CommissionFee = req.CommissionFee
	account.UpdatedAt = time.Now()

	if err := s.db.SaveAccount(account); err != nil {
		return nil, err
	}
	return account, nil
}

// DeleteAccount removes an account
func (s *Service) DeleteAccount(accountID, userID string) error {
	account, err := s.db.GetAccount(accountID, userID)
	if err != nil {
		return err
	}
	if account == nil {
		return ErrAccountNotFound
	}
	return s.db.DeleteAccount(account)
}

// GetPreference returns the stored preference payload for a key, or nil
func (s *Service) GetPreference(userID, key string) (*types.UserPreference, error) {
	return s.db.GetPreference(userID, key)
}

// PutPreference upserts a preference payload under the current schema version
func (s *Service) PutPreference(userID, key, value string) (*types.UserPreference, error) {
	pref, err := s.db.GetPreference(userID, key)
	if err != nil {
		return nil, err
	}
	if pref == nil {
		pref = &types.UserPreference{
			UserID:    userID,
			Key:       key,
			CreatedAt: time.Now(),
		}
	}
	pref.Value = value
	pref.SchemaVersion = PreferenceSchemaVersion
	pref.UpdatedAt = time.Now()

	if err := s.db.SavePreference(pref); err != nil {
		return nil, err
	}
	return pref, nil
}

// GinHandlers contains HTTP handlers for account and preference endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for account endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{service: service}
}

// CreateAccountHandler handles POST requests to create an account
func (h *GinHandlers) CreateAccountHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req NewAccount
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		account, err := h.service.CreateAccount(c.GetString("userID"), req)
		if errors.Is(err, ErrNameTaken) {
			response.Conflict(c, err.Error())
			return
		}
		response.Handle(c, account, err)
	}
}

// ListAccountsHandler handles GET requests for the user's accounts
func (h *GinHandlers) ListAccountsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		accounts, err := h.service.ListAccounts(c.GetString("userID"))
		response.Handle(c, accounts, err)
	}
}

// GetAccountHandler handles GET requests for a single account
func (h *GinHandlers) GetAccountHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		account, err := h.service.GetAccount(c.Param("account_id"), c.GetString("userID"))
		if errors.Is(err, ErrAccountNotFound) {
			response.Gone(c, err.Error())
			return
		}
		response.Handle(c, account, err)
	}
}

// UpdateAccountHandler handles PUT requests to edit an account
func (h *GinHandlers) UpdateAccountHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req NewAccount
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		account, err := h.service.UpdateAccount(c.Param("account_id"), c.GetString("userID"), req)
		switch {
		case errors.Is(err, ErrAccountNotFound):
			response.Gone(c, err.Error())
		case errors.Is(err, ErrNameTaken):
			response.Conflict(c, err.Error())
		default:
			response.Handle(c, account, err)
		}
	}
}

// DeleteAccountHandler handles DELETE requests for an account
func (h *GinHandlers) DeleteAccountHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		err := h.service.DeleteAccount(c.Param("account_id"), c.GetString("userID"))
		if errors.Is(err, ErrAccountNotFound) {
			response.Gone(c, err.Error())
			return
		}
		response.Handle(c, gin.H{"deleted": true}, err)
	}
}

type preferenceRequest struct {
	Value string `json:"value" binding:"required"`
}

// GetPreferenceHandler handles GET requests for a preference key
func (h *GinHandlers) GetPreferenceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		pref, err := h.service.GetPreference(c.GetString("userID"), c.Param("key"))
		if err == nil && pref == nil {
			response.NotFound(c, "Preference not set")
			return
		}
		response.Handle(c, pref, err)
	}
}

// PutPreferenceHandler handles PUT requests to store a preference payload
func (h *GinHandlers) PutPreferenceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req preferenceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		pref, err := h.service.PutPreference(c.GetString("userID"), c.Param("key"), req.Value)
		response.Handle(c, pref, err)
	}
}
