// Package storage is the attachment store behind screenshot and file
// uploads. Files live on local disk under uuid names and are served only
// through HMAC-signed, expiring URLs.
package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/zyrticx/tradesmart-api/internal/types"
	"github.com/zyrticx/tradesmart-api/pkg/response"
)

var (
	ErrUnsupportedType = errors.New("unsupported attachment type")
	ErrInvalidName     = errors.New("invalid attachment name")
	ErrBadSignature    = errors.New("signature invalid or expired")
)

// Attachments are screenshots and study documents
var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
	".pdf":  true,
}

const maxUploadBytes = 10 << 20 // 10 MiB

// Store saves uploaded files and signs download URLs
type Store struct {
	dir        string
	signingKey []byte
	ttl        time.Duration
}

// NewStore creates the storage directory if needed and returns a store
func NewStore(dir, signingKey string, ttl time.Duration) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}
	return &Store{
		dir:        dir,
		signingKey: []byte(signingKey),
		ttl:        ttl,
	}, nil
}

// Save writes an upload to disk under a fresh uuid name, keeping only the
// original extension. Returns the stored name.
func (s *Store) Save(originalName string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !allowedExtensions[ext] {
		return "", ErrUnsupportedType
	}

	name := uuid.New().String() + ext
	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, io.LimitReader(r, maxUploadBytes)); err != nil {
		return "", err
	}
	return name, nil
}

// SignedURL returns a relative URL for an attachment that is valid until
// the store's TTL elapses
func (s *Store) SignedURL(name string) (string, time.Time) {
	expires := time.Now().Add(s.ttl)
	sig := s.sign(name, expires.Unix())
	return fmt.Sprintf("/api/v1/attachments/%s?expires=%d&sig=%s", name, expires.Unix(), sig), expires
}

// Verify checks an attachment request's signature and expiry
func (s *Store) Verify(name string, expires int64, sig string) error {
	if time.Now().Unix() > expires {
		return ErrBadSignature
	}
	expected := s.sign(name, expires)
	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return ErrBadSignature
	}
	return nil
}

// Path resolves a stored name to its on-disk path, rejecting traversal
func (s *Store) Path(name string) (string, error) {
	if name != filepath.Base(name) || strings.Contains(name, "..") {
		return "", ErrInvalidName
	}
	return filepath.Join(s.dir, name), nil
}

func (s *Store) sign(name string, expires int64) string {
	mac := hmac.New(sha256.New, s.signingKey)
	fmt.Fprintf(mac, "%s:%d", name, expires)
	return hex.EncodeToString(mac.Sum(nil))
}

// GinHandlers contains HTTP handlers for attachment endpoints
type GinHandlers struct {
	store *Store
}

// NewGinHandlers creates a new set of HTTP handlers for attachment endpoints
func NewGinHandlers(store *Store) *GinHandlers {
	return &GinHandlers{store: store}
}

// UploadHandler handles multipart POST requests to store an attachment.
// Responds with the permanent name and a signed download URL.
func (h *GinHandlers) UploadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		file, err := c.FormFile("file")
		if err != nil {
			response.BadRequest(c, "file field is required")
			return
		}
		if file.Size > maxUploadBytes {
			response.BadRequest(c, "file too large")
			return
		}

		src, err := file.Open()
		if err != nil {
			response.InternalError(c, "failed to read upload")
			return
		}
		defer src.Close()

		name, err := h.store.Save(file.Filename, src)
		if errors.Is(err, ErrUnsupportedType) {
			response.BadRequest(c, err.Error())
			return
		}
		if err != nil {
			log.Error().Err(err).Msg("failed to store attachment")
			response.InternalError(c, "failed to store attachment")
			return
		}

		signed, expiresAt := h.store.SignedURL(name)
		response.Success(c, types.UploadResponse{
			URL:       "/api/v1/attachments/" + name,
			SignedURL: signed,
			ExpiresAt: expiresAt,
		})
	}
}

// ServeHandler handles GET requests for a stored attachment. The request
// must carry a valid, unexpired signature.
func (h *GinHandlers) ServeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")
		expires, err := strconv.ParseInt(c.Query("expires"), 10, 64)
		if err != nil {
			response.BadRequest(c, "expires parameter is required")
			return
		}

		if err := h.store.Verify(name, expires, c.Query("sig")); err != nil {
			response.Forbidden(c, "signature invalid or expired")
			return
		}

		path, err := h.store.Path(name)
		if err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		if _, err := os.Stat(path); err != nil {
			response.NotFound(c, "attachment not found")
			return
		}

		c.File(path)
	}
}

// SignHandler handles GET requests for a fresh signed URL to an existing
// attachment
func (h *GinHandlers) SignHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")
		path, err := h.store.Path(name)
		if err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		if _, err := os.Stat(path); err != nil {
			response.NotFound(c, "attachment not found")
			return
		}

		signed, expiresAt := h.store.SignedURL(name)
		response.Success(c, types.UploadResponse{
			URL:       "/api/v1/attachments/" + name,
			SignedURL: signed,
			ExpiresAt: expiresAt,
		})
	}
}
