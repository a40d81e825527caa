// Package watchlist manages symbols under observation
package watchlist

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zyrticx/tradesmart-api/internal/types"
	"github.com/zyrticx/tradesmart-api/pkg/response"
)

var ErrNoteNotFound = errors.New("watchlist note no longer exists")

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func (d *Database) CreateNote(note *types.WatchlistNote) error {
	return d.db.Create(note).Error
}

func (d *Database) GetNote(noteID, userID string) (*types.WatchlistNote, error) {
	var note types.WatchlistNote
	if err := d.db.Where("note_id = ? AND user_id = ?", noteID, userID).First(&note).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &note, nil
}

func (d *Database) ListNotes(userID, accountID string) ([]types.WatchlistNote, error) {
	var notes []types.WatchlistNote
	query := d.db.Where("user_id = ?", userID)
	if accountID != "" {
		query = query.Where("account_id = ?", accountID)
	}
	if err := query.Order("date DESC").Find(&notes).Error; err != nil {
		return nil, err
	}
	return notes, nil
}

func (d *Database) SaveNote(note *types.WatchlistNote) error {
	return d.db.Save(note).Error
}

func (d *Database) DeleteNote(note *types.WatchlistNote) error {
	return d.db.Delete(note).Error
}

// Service handles watchlist operations
type Service struct {
	db *Database
}

func NewService(gormDB *gorm.DB) *Service {
	return &Service{db: NewDatabase(gormDB)}
}

// NewNote carries the client-settable watchlist fields
type NewNote struct {
	AccountID      string    `json:"account_id"`
	Symbol         string    `json:"symbol" binding:"required"`
	Date           time.Time `json:"date"`
	Price          float64   `json:"price"`
	Sentiment      string    `json:"sentiment"`
	Notes          string    `json:"notes"`
	ScreenshotURLs string    `json:"screenshot_urls"`
}

func (s *Service) Create(userID string, req NewNote) (*types.WatchlistNote, error) {
	if req.Date.IsZero() {
		req.Date = time.Now()
	}

	note := &types.WatchlistNote{
		NoteID:         uuid.New().String(),
		UserID:         userID,
		AccountID:      req.AccountID,
		Symbol:         strings.ToUpper(strings.TrimSpace(req.Symbol)),
		Date:           req.Date,
		Price:          req.Price,
		Sentiment:      req.Sentiment,
		Notes:          req.Notes,
		ScreenshotURLs: req.ScreenshotURLs,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	if err := s.db.CreateNote(note); err != nil {
		return nil, err
	}
	return note, nil
}

func (s *Service) List(userID, accountID string) ([]types.WatchlistNote, error) {
	return s.db.ListNotes(userID, accountID)
}

func (s *Service) Update(noteID, userID string, req NewNote) (*types.WatchlistNote, error) {
	note, err := s.db.GetNote(noteID, userID)
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, ErrNoteNotFound
	}

	if req.Symbol != "" {
		note.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))
	}
	if !req.Date.IsZero() {
		note.Date = req.Date
	}
	note.Price = req.Price
	note.Sentiment = req.Sentiment
	note.Notes = req.Notes
	if req.ScreenshotURLs != "" {
		note.ScreenshotURLs = req.ScreenshotURLs
	}
	note.UpdatedAt = time.Now()

	if err := s.db.SaveNote(note); err != nil {
		return nil, err
	}
	return note, nil
}

func (s *Service) Delete(noteID, userID string) error {
	note, err := s.db.GetNote(noteID, userID)
	if err != nil {
		return err
	}
	if note == nil {
		return ErrNoteNotFound
	}
	return s.db.DeleteNote(note)
}

// GinHandlers contains HTTP handlers for watchlist endpoints
type GinHandlers struct {
	service *Service
}

func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{service: service}
}

func (h *GinHandlers) CreateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req NewNote
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		note, err := h.service.Create(c.GetString("userID"), req)
		response.Handle(c, note, err)
	}
}

func (h *GinHandlers) ListHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		notes, err := h.service.List(c.GetString("userID"), c.Query("account_id"))
		response.Handle(c, notes, err)
	}
}

func (h *GinHandlers) UpdateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req NewNote
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		note, err := h.service.Update(c.Param("note_id"), c.GetString("userID"), req)
		if errors.Is(err, ErrNoteNotFound) {
			response.Gone(c, err.Error())
			return
		}
		response.Handle(c, note, err)
	}
}

func (h *GinHandlers) DeleteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		err := h.service.Delete(c.Param("note_id"), c.GetString("userID"))
		if errors.Is(err, ErrNoteNotFound) {
			response.Gone(c, err.Error())
			return
		}
		response.Handle(c, gin.H{"deleted": true}, err)
	}
}
