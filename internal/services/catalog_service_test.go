package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tentsFixture = `[
  {"Id":"880RR","Name":"Marmot Ajax Tent - 3-Person, 3-Season","NameWithoutBrand":"Ajax Tent - 3-Person, 3-Season",
   "FinalPrice":199.99,"SuggestedRetailPrice":300,"Brand":{"Name":"Marmot"},
   "Colors":[{"ColorName":"Pale Pumpkin/Terracotta"}],"DescriptionHtmlSimple":"Get out and enjoy nature"},
  {"Id":"985RF","Name":"The North Face Talus Tent - 4-Person, 3-Season","NameWithoutBrand":"Talus Tent",
   "FinalPrice":199.99,"Brand":{"Name":"The North Face"},"Colors":[],"DescriptionHtmlSimple":"Lightweight and roomy"},
  {"Id":"344YJ","Name":"Cedar Ridge Rimrock Tent","NameWithoutBrand":"Rimrock Tent",
   "FinalPrice":69.99,"Brand":{"Name":"Cedar Ridge"},"Colors":[],"DescriptionHtmlSimple":"Sets up in minutes"}
]`

func writeCatalog(t *testing.T, dir, category, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, category+".json"), []byte(body), 0o644))
}

func TestCatalogService_Products(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "tents", tentsFixture)
	svc := NewCatalogService(FileCatalogSource{Dir: dir}, nil)

	products, err := svc.Products(context.Background(), "tents")
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, "880RR", products[0].ID)
	assert.Equal(t, "Marmot", products[0].Brand.Name)
	assert.Equal(t, 33, products[0].DiscountPercent())
}

func TestCatalogService_ResultEnvelope(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "backpacks", `{"Result":[{"Id":"B1","Name":"Pack","FinalPrice":59}]}`)
	svc := NewCatalogService(FileCatalogSource{Dir: dir}, nil)

	products, err := svc.Products(context.Background(), "backpacks")
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "B1", products[0].ID)
}

func TestCatalogService_DegradesToEmpty(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "broken", `[{"Id":`)
	writeCatalog(t, dir, "blank", `   `)
	svc := NewCatalogService(FileCatalogSource{Dir: dir}, nil)

	for _, category := range []string{"missing", "broken", "blank", "../etc/passwd"} {
		products, err := svc.Products(context.Background(), category)
		assert.ErrorIs(t, err, ErrCatalogUnavailable, category)
		assert.NotNil(t, products, category)
		assert.Empty(t, products, category)
	}
}

type errSource struct{ err error }

func (s errSource) Fetch(context.Context, string) ([]byte, error) { return nil, s.err }

func TestCatalogService_WrapsSourceError(t *testing.T) {
	cause := errors.New("503 from upstream")
	svc := NewCatalogService(errSource{err: cause}, nil)

	_, err := svc.Products(context.Background(), "tents")
	assert.ErrorIs(t, err, ErrCatalogUnavailable)
	assert.ErrorIs(t, err, cause)
}

func TestCatalogService_Product(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "tents", tentsFixture)
	svc := NewCatalogService(FileCatalogSource{Dir: dir}, nil)

	p, err := svc.Product(context.Background(), "tents", "344YJ")
	require.NoError(t, err)
	assert.Equal(t, "Cedar Ridge Rimrock Tent", p.Name)

	_, err = svc.Product(context.Background(), "tents", "nope")
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = svc.Product(context.Background(), "kayaks", "344YJ")
	assert.ErrorIs(t, err, ErrCatalogUnavailable)
}
