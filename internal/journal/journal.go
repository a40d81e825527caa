// Package journal manages dated free-form journal entries
package journal

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zyrticx/tradesmart-api/internal/types"
	"github.com/zyrticx/tradesmart-api/pkg/response"
)

var ErrEntryNotFound = errors.New("journal entry no longer exists")

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func (d *Database) CreateEntry(entry *types.JournalEntry) error {
	return d.db.Create(entry).Error
}

func (d *Database) GetEntry(entryID, userID string) (*types.JournalEntry, error) {
	var entry types.JournalEntry
	if err := d.db.Where("entry_id = ? AND user_id = ?", entryID, userID).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (d *Database) ListEntries(userID, accountID string) ([]types.JournalEntry, error) {
	var entries []types.JournalEntry
	query := d.db.Where("user_id = ?", userID)
	if accountID != "" {
		query = query.Where("account_id = ?", accountID)
	}
	if err := query.Order("date DESC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (d *Database) SaveEntry(entry *types.JournalEntry) error {
	return d.db.Save(entry).Error
}

func (d *Database) DeleteEntry(entry *types.JournalEntry) error {
	return d.db.Delete(entry).Error
}

// Service handles journal entry operations
type Service struct {
	db *Database
}

func NewService(gormDB *gorm.DB) *Service {
	return &Service{db: NewDatabase(gormDB)}
}

// NewEntry carries the client-settable journal fields
type NewEntry struct {
	AccountID      string    `json:"account_id"`
	Date           time.Time `json:"date"`
	Title          string    `json:"title" binding:"required"`
	Content        string    `json:"content"`
	Mood           string    `json:"mood"`
	LessonsLearned string    `json:"lessons_learned"`
	ScreenshotURLs string    `json:"screenshot_urls"`
}

func (s *Service) Create(userID string, req NewEntry) (*types.JournalEntry, error) {
	if req.Date.IsZero() {
		req.Date = time.Now()
	}
	if req.Mood == "" {
		req.Mood = "neutral"
	}

	entry := &types.JournalEntry{
		EntryID:        uuid.New().String(),
		UserID:         userID,
		AccountID:      req.AccountID,
		Date:           req.Date,
		Title:          req.Title,
		Content:        req.Content,
		Mood:           req.Mood,
		LessonsLearned: req.LessonsLearned,
		ScreenshotURLs: req.ScreenshotURLs,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	if err := s.db.CreateEntry(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *Service) List(userID, accountID string) ([]types.JournalEntry, error) {
	return s.db.ListEntries(userID, accountID)
}

func (s *Service) Update(entryID, userID string, req NewEntry) (*types.JournalEntry, error) {
	entry, err := s.db.GetEntry(entryID, userID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ErrEntryNotFound
	}

	if !req.Date.IsZero() {
		entry.Date = req.Date
	}
	entry.Title = req.Title
	entry.Content = req.Content
	if req.Mood != "" {
		entry.Mood = req.Mood
	}
	entry.LessonsLearned = req.LessonsLearned
	if req.ScreenshotURLs != "" {
		entry.ScreenshotURLs = req.ScreenshotURLs
	}
	entry.UpdatedAt = time.Now()

	if err := s.db.SaveEntry(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *Service) Delete(entryID, userID string) error {
	entry, err := s.db.GetEntry(entryID, userID)
	if err != nil {
		return err
	}
	if entry == nil {
		return ErrEntryNotFound
	}
	return s.db.DeleteEntry(entry)
}

// GinHandlers contains HTTP handlers for journal endpoints
type GinHandlers struct {
	service *Service
}

func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{service: service}
}

func (h *GinHandlers) CreateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req NewEntry
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		entry, err := h.service.Create(c.GetString("userID"), req)
		response.Handle(c, entry, err)
	}
}

func (h *GinHandlers) ListHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, err := h.service.List(c.GetString("userID"), c.Query("account_id"))
		response.Handle(c, entries, err)
	}
}

func (h *GinHandlers) UpdateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req NewEntry
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		entry, err := h.service.Update(c.Param("entry_id"), c.GetString("userID"), req)
		if errors.Is(err, ErrEntryNotFound) {
			response.Gone(c, err.Error())
			return
		}
		response.Handle(c, entry, err)
	}
}

func (h *GinHandlers) DeleteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		err := h.service.Delete(c.Param("entry_id"), c.GetString("userID"))
		if errors.Is(err, ErrEntryNotFound) {
			response.Gone(c, err.Error())
			return
		}
		response.Handle(c, gin.H{"deleted": true}, err)
	}
}
