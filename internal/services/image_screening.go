package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"google.golang.org/api/option"
	vision "google.golang.org/api/vision/v1"
)

// ErrImageRejected is returned when SafeSearch flags an image as unsafe.
var ErrImageRejected = errors.New("image rejected: violates content guidelines")

// ImageScreener decides whether uploaded image bytes may be published.
type ImageScreener interface {
	Screen(ctx context.Context, content []byte) error
}

type SafeSearchResult struct {
	Adult    string
	Violence string
	Racy     string
	Spoof    string
	Medical  string
}

func isUnsafeLikelyOrHigher(l string) bool {
	return l == "LIKELY" || l == "VERY_LIKELY"
}

func (r *SafeSearchResult) IsUnsafe() bool {
	return isUnsafeLikelyOrHigher(r.Adult) || isUnsafeLikelyOrHigher(r.Violence) || isUnsafeLikelyOrHigher(r.Racy)
}

// VisionScreener runs Cloud Vision SAFE_SEARCH_DETECTION on inline image
// content.
type VisionScreener struct {
	svc *vision.Service
}

// NewVisionScreener uses Application Default Credentials unless opts say
// otherwise.
func NewVisionScreener(ctx context.Context, opts ...option.ClientOption) (*VisionScreener, error) {
	opts = append([]option.ClientOption{option.WithScopes(vision.CloudPlatformScope)}, opts...)
	svc, err := vision.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("vision client: %w", err)
	}
	return &VisionScreener{svc: svc}, nil
}

func (s *VisionScreener) Screen(ctx context.Context, content []byte) error {
	ss, err := s.detect(ctx, content)
	if err != nil {
		return fmt.Errorf("safesearch: %w", err)
	}
	if ss.IsUnsafe() {
		return ErrImageRejected
	}
	return nil
}

func (s *VisionScreener) detect(ctx context.Context, content []byte) (*SafeSearchResult, error) {
	req := &vision.AnnotateImageRequest{
		Image: &vision.Image{
			Content: base64.StdEncoding.EncodeToString(content),
		},
		Features: []*vision.Feature{
			{Type: "SAFE_SEARCH_DETECTION"},
		},
	}

	resp, err := s.svc.Images.Annotate(&vision.BatchAnnotateImagesRequest{
		Requests: []*vision.AnnotateImageRequest{req},
	}).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	if len(resp.Responses) == 0 || resp.Responses[0].SafeSearchAnnotation == nil {
		return &SafeSearchResult{}, nil
	}

	ss := resp.Responses[0].SafeSearchAnnotation
	return &SafeSearchResult{
		Adult:    ss.Adult,
		Violence: ss.Violence,
		Racy:     ss.Racy,
		Spoof:    ss.Spoof,
		Medical:  ss.Medical,
	}, nil
}
