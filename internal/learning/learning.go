// Package learning tracks books, videos, courses and documents
package learning

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zyrticx/tradesmart-api/internal/types"
	"github.com/zyrticx/tradesmart-api/pkg/response"
)

var ErrMaterialNotFound = errors.New("learning material no longer exists")

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func (d *Database) CreateMaterial(material *types.LearningMaterial) error {
	return d.db.Create(material).Error
}

func (d *Database) GetMaterial(materialID, userID string) (*types.LearningMaterial, error) {
	var material types.LearningMaterial
	if err := d.db.Where("material_id = ? AND user_id = ?", materialID, userID).First(&material).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &material, nil
}

func (d *Database) ListMaterials(userID, accountID, topic string) ([]types.LearningMaterial, error) {
	var materials []types.LearningMaterial
	query := d.db.Where("user_id = ?", userID)
	if accountID != "" {
		query = query.Where("account_id = ?", accountID)
	}
	if topic != "" {
		query = query.Where("topic = ?", topic)
	}
	if err := query.Order("created_at DESC").Find(&materials).Error; err != nil {
		return nil, err
	}
	return materials, nil
}

func (d *Database) SaveMaterial(material *types.LearningMaterial) error {
	return d.db.Save(material).Error
}

func (d *Database) DeleteMaterial(material *types.LearningMaterial) error {
	return d.db.Delete(material).Error
}

// Service handles learning material operations
type Service struct {
	db *Database
}

func NewService(gormDB *gorm.DB) *Service {
	return &Service{db: NewDatabase(gormDB)}
}

// NewMaterial carries the client-settable material fields
type NewMaterial struct {
	AccountID        string `json:"account_id"`
	Title            string `json:"title" binding:"required"`
	Description      string `json:"description"`
	Type             string `json:"type"`
	Topic            string `json:"topic"`
	Author           string `json:"author"`
	ExternalURL      string `json:"external_url"`
	FileURL          string `json:"file_url"`
	CompletionStatus string `json:"completion_status"`
	Rating           int    `json:"rating"`
	Tags             string `json:"tags"`
	Notes            string `json:"notes"`
}

func (s *Service) Create(userID string, req NewMaterial) (*types.LearningMaterial, error) {
	if req.CompletionStatus == "" {
		req.CompletionStatus = "not_started"
	}

	material := &types.LearningMaterial{
		MaterialID:       uuid.New().String(),
		UserID:           userID,
		AccountID:        req.AccountID,
		Title:            req.Title,
		Description:      req.Description,
		Type:             req.Type,
		Topic:            req.Topic,
		Author:           req.Author,
		ExternalURL:      req.ExternalURL,
		FileURL:          req.FileURL,
		CompletionStatus: req.CompletionStatus,
		Rating:           req.Rating,
		Tags:             req.Tags,
		Notes:            req.Notes,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
	if err := s.db.CreateMaterial(material); err != nil {
		return nil, err
	}
	return material, nil
}

func (s *Service) List(userID, accountID, topic string) ([]types.LearningMaterial, error) {
	return s.db.ListMaterials(userID, accountID, topic)
}

func (s *Service) Update(materialID, userID string, req NewMaterial) (*types.LearningMaterial, error) {
	material, err := s.db.GetMaterial(materialID, userID)
	if err != nil {
		return nil, err
	}
	if material == nil {
		return nil, ErrMaterialNotFound
	}

	material.Title = req.Title
	material.Description = req.Description
	if req.Type != "" {
		material.Type = req.Type
	}
	material.Topic = req.Topic
	material.Author = req.Author
	material.ExternalURL = req.ExternalURL
	if req.FileURL != "" {
		material.FileURL = req.FileURL
	}
	if req.CompletionStatus != "" {
		material.CompletionStatus = req.CompletionStatus
	}
	material.Rating = req.Rating
	material.Tags = req.Tags
	material.Notes = req.Notes
	material.UpdatedAt = time.Now()

	if err := s.db.SaveMaterial(material); err != nil {
		return nil, err
	}
	return material, nil
}

func (s *Service) Delete(materialID, userID string) error {
	material, err := s.db.GetMaterial(materialID, userID)
	if err != nil {
		return err
	}
	if material == nil {
		return ErrMaterialNotFound
	}
	return s.db.DeleteMaterial(material)
}

// GinHandlers contains HTTP handlers for learning material endpoints
type GinHandlers struct {
	service *Service
}

func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{service: service}
}

func (h *GinHandlers) CreateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req NewMaterial
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		material, err := h.service.Create(c.GetString("userID"), req)
		response.Handle(c, material, err)
	}
}

func (h *GinHandlers) ListHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		materials, err := h.service.List(c.GetString("userID"), c.Query("account_id"), c.Query("topic"))
		response.Handle(c, materials, err)
	}
}

func (h *GinHandlers) UpdateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req NewMaterial
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		material, err := h.service.Update(c.Param("material_id"), c.GetString("userID"), req)
		if errors.Is(err, ErrMaterialNotFound) {
			response.Gone(c, err.Error())
			return
		}
		response.Handle(c, material, err)
	}
}

func (h *GinHandlers) DeleteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		err := h.service.Delete(c.Param("material_id"), c.GetString("userID"))
		if errors.Is(err, ErrMaterialNotFound) {
			response.Gone(c, err.Error())
			return
		}
		response.Handle(c, gin.H{"deleted": true}, err)
	}
}
