package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infa-ajaykumar/RealityBuilder/internal/enrich"
	"github.com/infa-ajaykumar/RealityBuilder/internal/search"
	"github.com/infa-ajaykumar/RealityBuilder/internal/store"
)

type fakeUpserter struct {
	err    error
	last   *store.Listing
	calls  int
	nextID int64
}

func (f *fakeUpserter) Upsert(_ context.Context, l *store.Listing) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.nextID++
	l.ID = f.nextID
	l.CreatedAt = time.Now().UTC()
	l.UpdatedAt = l.CreatedAt
	f.last = l
	return nil
}

type fakeIndexer struct {
	err   error
	last  search.Document
	calls int
}

func (f *fakeIndexer) IndexListing(_ context.Context, doc search.Document) error {
	f.calls++
	f.last = doc
	return f.err
}

func newPipeline(up *fakeUpserter, idx *fakeIndexer) *Pipeline {
	return &Pipeline{
		Store:    up,
		Search:   idx,
		Enricher: enrich.New(nil, nil, enrich.DefaultThresholds(), time.Second),
	}
}

const happyMessage = `{
	"source_url": "https://example.com/u1",
	"source_name": "S1",
	"title": "Sunny 2BR",
	"price_text": "$2,000/month",
	"bedrooms_text": "2 Beds",
	"bathrooms_text": "1 Bath",
	"area_text": "900 sqft",
	"location_text": "Seattle, WA"
}`

func TestProcessHappyPath(t *testing.T) {
	up := &fakeUpserter{}
	idx := &fakeIndexer{}
	p := newPipeline(up, idx)

	require.NoError(t, p.Process(context.Background(), []byte(happyMessage)))

	require.NotNil(t, up.last)
	assert.Equal(t, "https://example.com/u1", up.last.SourceURL)
	require.NotNil(t, up.last.PriceUSD)
	assert.Equal(t, 2000.0, *up.last.PriceUSD)
	assert.Equal(t, store.StatusActive, up.last.Status)

	assert.Equal(t, 1, idx.calls)
	assert.Equal(t, up.last.SourceURL, idx.last.SourceURL)
	assert.Equal(t, up.last.ID, idx.last.PropertyID)
}

func TestProcessMalformedBody(t *testing.T) {
	up := &fakeUpserter{}
	idx := &fakeIndexer{}
	p := newPipeline(up, idx)

	err := p.Process(context.Background(), []byte("%%%"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedMessage)
	assert.Zero(t, up.calls)
	assert.Zero(t, idx.calls)
}

func TestProcessMasterWriteFailureSkipsIndex(t *testing.T) {
	up := &fakeUpserter{err: errors.New("pg down")}
	idx := &fakeIndexer{}
	p := newPipeline(up, idx)

	err := p.Process(context.Background(), []byte(happyMessage))
	require.Error(t, err)
	assert.Zero(t, idx.calls, "relational write must precede index write")
}

func TestProcessIndexFailureAfterMasterWrite(t *testing.T) {
	up := &fakeUpserter{}
	idx := &fakeIndexer{err: errors.New("es down")}
	p := newPipeline(up, idx)

	err := p.Process(context.Background(), []byte(happyMessage))
	require.Error(t, err)
	assert.Equal(t, 1, up.calls, "master record is retained")
}
