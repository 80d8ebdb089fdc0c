package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageService_UploadAndDelete(t *testing.T) {
	dir := t.TempDir()
	svc, err := NewImageService(dir, "http://localhost:8080/")
	require.NoError(t, err)

	resp, err := svc.Upload(context.Background(), "Tent.PNG", strings.NewReader("png bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(resp.Filename, ".png"))
	assert.Equal(t, "http://localhost:8080/uploads/"+resp.Filename, resp.URL)

	body, err := os.ReadFile(filepath.Join(dir, resp.Filename))
	require.NoError(t, err)
	assert.Equal(t, "png bytes", string(body))

	rec, err := svc.GetByID(resp.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.Filename, rec.Filename)

	require.NoError(t, svc.Delete(resp.ID))
	_, err = os.Stat(filepath.Join(dir, resp.Filename))
	assert.True(t, os.IsNotExist(err))
	assert.ErrorIs(t, svc.Delete(resp.ID), ErrImageNotFound)
}

func TestImageService_RejectsOtherExtensions(t *testing.T) {
	svc, err := NewImageService(t.TempDir(), "")
	require.NoError(t, err)

	_, err = svc.Upload(context.Background(), "notes.txt", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestImageService_DefaultsToJPEG(t *testing.T) {
	svc, err := NewImageService(t.TempDir(), "")
	require.NoError(t, err)

	resp, err := svc.Upload(context.Background(), "blob", strings.NewReader("x"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(resp.Filename, ".jpg"))
	assert.Equal(t, "/uploads/"+resp.Filename, resp.URL)
}

func TestImageService_RescansUploadDir(t *testing.T) {
	dir := t.TempDir()
	first, err := NewImageService(dir, "")
	require.NoError(t, err)
	resp, err := first.Upload(context.Background(), "a.webp", strings.NewReader("x"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stray.gif"), []byte("x"), 0o644))

	second, err := NewImageService(dir, "")
	require.NoError(t, err)
	_, err = second.GetByID(resp.ID)
	assert.NoError(t, err)
	_, err = second.GetByID("stray")
	assert.ErrorIs(t, err, ErrImageNotFound)
}

type stubScreener struct{ err error }

func (s stubScreener) Screen(context.Context, []byte) error { return s.err }

func TestImageService_Screening(t *testing.T) {
	dir := t.TempDir()
	svc, err := NewImageService(dir, "")
	require.NoError(t, err)

	svc.SetScreener(stubScreener{err: ErrImageRejected})
	_, err = svc.Upload(context.Background(), "bad.jpg", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrImageRejected)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	svc.SetScreener(stubScreener{})
	resp, err := svc.Upload(context.Background(), "ok.jpg", strings.NewReader("fine"))
	require.NoError(t, err)
	body, err := os.ReadFile(filepath.Join(dir, resp.Filename))
	require.NoError(t, err)
	assert.Equal(t, "fine", string(body))
}

func TestSafeSearchResult_IsUnsafe(t *testing.T) {
	assert.False(t, (&SafeSearchResult{Adult: "POSSIBLE", Spoof: "VERY_LIKELY", Medical: "LIKELY"}).IsUnsafe())
	assert.True(t, (&SafeSearchResult{Racy: "LIKELY"}).IsUnsafe())
	assert.True(t, (&SafeSearchResult{Violence: "VERY_LIKELY"}).IsUnsafe())
}
