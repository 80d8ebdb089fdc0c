package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/sleepoutside/backend/internal/models"
	"github.com/sleepoutside/backend/internal/validation"
)

var (
	ErrImageNotFound = errors.New("image not found")
	ErrInvalidImage  = errors.New("invalid image file")
)

// ImageService stores product images uploaded by inventory admins. The
// returned URL is what gets written into a record's imageUrl.
type ImageService struct {
	mu        sync.RWMutex
	uploadDir string
	baseURL   string
	screener  ImageScreener
	images    map[string]*ImageRecord
}

type ImageRecord struct {
	ID       string
	Filename string
	Path     string
}

func NewImageService(uploadDir, baseURL string) (*ImageService, error) {
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	s := &ImageService{
		uploadDir: uploadDir,
		baseURL:   strings.TrimRight(baseURL, "/"),
		images:    make(map[string]*ImageRecord),
	}
	s.scan()
	return s, nil
}

// SetScreener makes every later upload pass through screener before it is
// written to disk.
func (s *ImageService) SetScreener(screener ImageScreener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.screener = screener
}

// scan picks up images left by a previous run so they can still be deleted.
func (s *ImageService) scan() {
	entries, err := os.ReadDir(s.uploadDir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := filepath.Ext(name)
		id := strings.TrimSuffix(name, ext)
		if _, err := uuid.Parse(id); err != nil || !allowedImageExt(ext) {
			continue
		}
		s.images[id] = &ImageRecord{ID: id, Filename: name, Path: filepath.Join(s.uploadDir, name)}
	}
}

func (s *ImageService) Upload(ctx context.Context, filename string, file io.Reader) (*models.ImageUploadResponse, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".jpg"
	}
	if !allowedImageExt(ext) {
		return nil, ErrInvalidImage
	}

	s.mu.RLock()
	screener := s.screener
	s.mu.RUnlock()
	if screener != nil {
		content, err := io.ReadAll(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read upload: %w", err)
		}
		if err := screener.Screen(ctx, content); err != nil {
			return nil, err
		}
		file = bytes.NewReader(content)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	imageID := uuid.New().String()
	newFilename := imageID + ext
	filePath := filepath.Join(s.uploadDir, newFilename)

	dst, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(filePath)
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	s.images[imageID] = &ImageRecord{
		ID:       imageID,
		Filename: newFilename,
		Path:     filePath,
	}

	return &models.ImageUploadResponse{
		ID:       imageID,
		URL:      s.baseURL + "/uploads/" + newFilename,
		Filename: newFilename,
	}, nil
}

func (s *ImageService) Delete(imageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, exists := s.images[imageID]
	if !exists {
		return ErrImageNotFound
	}

	if err := os.Remove(record.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	delete(s.images, imageID)
	return nil
}

func (s *ImageService) GetByID(imageID string) (*ImageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.images[imageID]
	if !exists {
		return nil, ErrImageNotFound
	}
	copied := *record
	return &copied, nil
}

func allowedImageExt(ext string) bool {
	ext = strings.ToLower(ext)
	for _, allowed := range validation.ImageExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}
