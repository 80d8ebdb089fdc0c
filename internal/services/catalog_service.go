package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"time"

	gcs "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/sleepoutside/backend/internal/models"
)

var (
	ErrCatalogUnavailable = errors.New("product catalog is unavailable")
	ErrProductNotFound    = errors.New("product not found")
)

var catalogNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// CatalogSource fetches the raw product file for one category.
type CatalogSource interface {
	Fetch(ctx context.Context, category string) ([]byte, error)
}

// FileCatalogSource reads <dir>/<category>.json.
type FileCatalogSource struct {
	Dir string
}

func (s FileCatalogSource) Fetch(ctx context.Context, category string) ([]byte, error) {
	return os.ReadFile(filepath.Join(s.Dir, category+".json"))
}

// GCSCatalogSource reads gs://<bucket>/<prefix><category>.json.
type GCSCatalogSource struct {
	Client *gcs.Client
	Bucket string
	Prefix string
}

func NewGCSCatalogSource(ctx context.Context, bucket, prefix string) (*GCSCatalogSource, error) {
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: storage client: %w", err)
	}
	return &GCSCatalogSource{Client: client, Bucket: bucket, Prefix: prefix}, nil
}

func (s *GCSCatalogSource) Fetch(ctx context.Context, category string) ([]byte, error) {
	r, err := s.Client.Bucket(s.Bucket).Object(s.Prefix + category + ".json").NewReader(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (s *GCSCatalogSource) Close() error {
	return s.Client.Close()
}

// CatalogService serves read-only product lists. Any failure to fetch or
// parse a category degrades to an empty list plus ErrCatalogUnavailable.
type CatalogService struct {
	source  CatalogSource
	timeout time.Duration
	logger  *zap.Logger
}

func NewCatalogService(source CatalogSource, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{
		source:  source,
		timeout: 10 * time.Second,
		logger:  logger,
	}
}

// Products returns the category's products. The slice is never nil.
func (s *CatalogService) Products(ctx context.Context, category string) ([]models.Product, error) {
	if !catalogNamePattern.MatchString(category) {
		return []models.Product{}, fmt.Errorf("%w: unknown category %q", ErrCatalogUnavailable, category)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.source.Fetch(ctx, category)
	if err != nil {
		s.logger.Warn("fetch catalog", zap.String("category", category), zap.Error(err))
		return []models.Product{}, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}

	products, err := decodeProducts(raw)
	if err != nil {
		s.logger.Warn("decode catalog", zap.String("category", category), zap.Error(err))
		return []models.Product{}, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}
	return products, nil
}

func (s *CatalogService) Product(ctx context.Context, category, id string) (*models.Product, error) {
	products, err := s.Products(ctx, category)
	if err != nil {
		return nil, err
	}
	for i := range products {
		if products[i].ID == id {
			p := products[i]
			return &p, nil
		}
	}
	return nil, ErrProductNotFound
}

// decodeProducts accepts either a bare array or the API envelope
// {"Result": [...]}.
func decodeProducts(raw []byte) ([]models.Product, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errors.New("empty catalog document")
	}

	var products []models.Product
	if trimmed[0] == '{' {
		var envelope struct {
			Result []models.Product `json:"Result"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, err
		}
		products = envelope.Result
	} else if err := json.Unmarshal(trimmed, &products); err != nil {
		return nil, err
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}
