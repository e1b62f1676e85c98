package service

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qanoon-go/internal/config"
	"qanoon-go/internal/model"
	"qanoon-go/pkg/log"
)

func TestMain(m *testing.M) {
	log.Init("error", "console", "")
	config.Conf = config.Config{}
	os.Exit(m.Run())
}

type fakeChunkRepo struct {
	chunks []model.Chunk
}

func (f *fakeChunkRepo) Snapshot() []model.Chunk       { return f.chunks }
func (f *fakeChunkRepo) Reload() error                 { return nil }
func (f *fakeChunkRepo) Watch(ctx context.Context) error { return nil }

func legalChunks() []model.Chunk {
	return []model.Chunk{
		{ID: 0, Text: "Whoever commits theft shall be punished with imprisonment", SourceDocument: "PPC", PageOrSection: "page 90"},
		{ID: 1, Text: "Murder is punishable by death or imprisonment for life", SourceDocument: "PPC", PageOrSection: "page 73"},
		{ID: 2, Text: "Registration of property transfers under the land act", SourceDocument: "Land Act", PageOrSection: "page 4"},
		{ID: 3, Text: "theft of electricity and theft of vehicles imprisonment fine", SourceDocument: "PPC", PageOrSection: "page 91"},
	}
}

func TestTopChunksRanksByOverlap(t *testing.T) {
	svc := NewRetrievalService(&fakeChunkRepo{chunks: legalChunks()})

	got := svc.TopChunks("punishment theft imprisonment", 8)
	require.NotEmpty(t, got)

	// Chunk 0 shares theft+imprisonment, chunk 3 the same, chunk 1 only
	// imprisonment. Tie between 0 and 3 goes to the lower id.
	require.Len(t, got, 3)
	assert.Equal(t, 0, got[0].Chunk.ID)
	assert.Equal(t, 3, got[1].Chunk.ID)
	assert.Equal(t, 1, got[2].Chunk.ID)

	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
	}
}

func TestTopChunksDistinctTokensOnly(t *testing.T) {
	svc := NewRetrievalService(&fakeChunkRepo{chunks: legalChunks()})

	// "theft" appears three times in chunk 3 but scores once.
	got := svc.TopChunks("theft", 8)
	require.Len(t, got, 2)
	assert.Equal(t, got[0].Score, got[1].Score)
	assert.Equal(t, 0, got[0].Chunk.ID)
	assert.Equal(t, 3, got[1].Chunk.ID)
}

func TestTopChunksExcludesZeroScores(t *testing.T) {
	svc := NewRetrievalService(&fakeChunkRepo{chunks: legalChunks()})

	got := svc.TopChunks("divorce custody", 8)
	assert.Empty(t, got)
}

func TestTopChunksCapsAtK(t *testing.T) {
	svc := NewRetrievalService(&fakeChunkRepo{chunks: legalChunks()})

	got := svc.TopChunks("theft imprisonment punishment", 1)
	require.Len(t, got, 1)
	assert.Equal(t, 0, got[0].Chunk.ID)
}

func TestTopChunksEdgeInputs(t *testing.T) {
	svc := NewRetrievalService(&fakeChunkRepo{chunks: legalChunks()})

	assert.Nil(t, svc.TopChunks("theft", 0))
	assert.Nil(t, svc.TopChunks("theft", -1))
	assert.Nil(t, svc.TopChunks("", 8))
	assert.Nil(t, svc.TopChunks("?!,.", 8))
}

func TestTopChunksEmptyStore(t *testing.T) {
	svc := NewRetrievalService(&fakeChunkRepo{chunks: []model.Chunk{}})

	assert.Empty(t, svc.TopChunks("theft", 8))
}

func TestTopChunksDeterministic(t *testing.T) {
	svc := NewRetrievalService(&fakeChunkRepo{chunks: legalChunks()})

	first := svc.TopChunks("theft imprisonment", 8)
	for i := 0; i < 5; i++ {
		again := svc.TopChunks("theft imprisonment", 8)
		assert.Equal(t, first, again)
	}
}

func TestTokenizeUnicode(t *testing.T) {
	tokens := tokenize("Qanoon: چوری کی سزا (Pakistan-Law 2024)?")
	assert.Contains(t, tokens, "qanoon")
	assert.Contains(t, tokens, "چوری")
	assert.Contains(t, tokens, "سزا")
	assert.Contains(t, tokens, "2024")
	assert.NotContains(t, tokens, "pakistan-law")
}
