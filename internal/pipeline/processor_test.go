package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qanoon-go/internal/config"
	"qanoon-go/internal/repository"
	"qanoon-go/pkg/log"
	"qanoon-go/pkg/pdfext"
)

func TestMain(m *testing.M) {
	log.Init("error", "console", "")
	os.Exit(m.Run())
}

func TestSplitTextWindowsAndOverlap(t *testing.T) {
	text := strings.Repeat("a", 7) + strings.Repeat("b", 7) + strings.Repeat("c", 7) + "dddd" // 25 runes

	spans := splitText(text, 10, 3)
	require.Len(t, spans, 4)

	for i, span := range spans {
		assert.Equal(t, i*7, span.start)
		if i < len(spans)-1 {
			assert.Len(t, []rune(span.text), 10)
		}
	}
	// Consecutive windows share the trailing/leading 3 runes.
	for i := 1; i < len(spans); i++ {
		prev := []rune(spans[i-1].text)
		cur := []rune(spans[i].text)
		assert.Equal(t, string(prev[len(prev)-3:]), string(cur[:3]))
	}
	// The last window reaches the end of the text.
	last := spans[len(spans)-1]
	assert.Equal(t, text[21:], last.text)
}

func TestSplitTextShortInput(t *testing.T) {
	spans := splitText("short", 1000, 100)
	require.Len(t, spans, 1)
	assert.Equal(t, "short", spans[0].text)
	assert.Equal(t, 0, spans[0].start)
}

func TestSplitTextEdgeCases(t *testing.T) {
	assert.Nil(t, splitText("", 1000, 100))
	assert.Nil(t, splitText("text", 0, 0))

	// Overlap >= size degrades to disjoint windows instead of looping.
	spans := splitText(strings.Repeat("x", 30), 10, 10)
	require.Len(t, spans, 3)
	for i, span := range spans {
		assert.Equal(t, i*10, span.start)
	}
}

func TestSplitTextCountsRunesNotBytes(t *testing.T) {
	urdu := strings.Repeat("چوری کی سزا ", 10)
	spans := splitText(urdu, 20, 5)
	for i, span := range spans {
		if i < len(spans)-1 {
			assert.Len(t, []rune(span.text), 20)
		}
	}
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "a b c", cleanText("  a\n\tb \r\n  c  "))
	assert.Equal(t, "", cleanText(" \n\t "))
	assert.Equal(t, "چوری کی سزا", cleanText("چوری\n\nکی   سزا"))
}

func TestChunkDocumentPageAttribution(t *testing.T) {
	doc := assembleDocument("PPC", []pdfext.PageText{
		{Number: 1, Text: strings.Repeat("a", 12)},
		{Number: 2, Text: strings.Repeat("b", 12)},
		{Number: 3, Text: ""},
		{Number: 4, Text: strings.Repeat("c", 12)},
	})
	require.Len(t, doc.Pages, 3)

	chunks := chunkDocument(doc, 5, 10, 3)
	require.NotEmpty(t, chunks)

	assert.Equal(t, "PPC", chunks[0].SourceDocument)
	assert.Equal(t, "page 1", chunks[0].PageOrSection)
	for i, c := range chunks {
		assert.Equal(t, 5+i, c.ID)
	}
	last := chunks[len(chunks)-1]
	assert.Equal(t, "page 4", last.PageOrSection)
}

func TestChunkDocumentDatasetSection(t *testing.T) {
	doc := document{Title: "Theft Act", Section: "Legal Dataset", Text: strings.Repeat("z", 25)}

	chunks := chunkDocument(doc, 0, 10, 3)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.Equal(t, "Theft Act", c.SourceDocument)
		assert.Equal(t, "Legal Dataset", c.PageOrSection)
	}
}

func TestLoadDatasetFieldFallbacks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "laws.json")
	long := strings.Repeat("Whoever commits theft shall be punished. ", 3)
	data := `[
		{"title":"Theft Act","text":"` + long + `"},
		{"file_name":"murder_act.pdf","content":"` + long + `"},
		{"title":"Too Short","text":"tiny"}
	]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	p := NewProcessor(config.IndexerConfig{DatasetPath: path, MinEntryChars: 50}, pdfext.NewExtractor())
	var stats Stats
	docs := p.loadDataset(&stats)

	require.Len(t, docs, 2)
	assert.Equal(t, "Theft Act", docs[0].Title)
	assert.Equal(t, "murder_act.pdf", docs[1].Title)
	assert.Equal(t, "Legal Dataset", docs[0].Section)
}

func TestLoadDatasetMissingOrCorrupt(t *testing.T) {
	p := NewProcessor(config.IndexerConfig{DatasetPath: filepath.Join(t.TempDir(), "nope.json"), MinEntryChars: 50}, pdfext.NewExtractor())
	var stats Stats
	assert.Empty(t, p.loadDataset(&stats))

	dir := t.TempDir()
	path := filepath.Join(dir, "laws.json")
	require.NoError(t, os.WriteFile(path, []byte("{oops"), 0o644))
	p = NewProcessor(config.IndexerConfig{DatasetPath: path, MinEntryChars: 50}, pdfext.NewExtractor())
	assert.Empty(t, p.loadDataset(&stats))
}

func TestRunWritesArtifactFromDataset(t *testing.T) {
	dir := t.TempDir()
	dataset := filepath.Join(dir, "laws.json")
	long := strings.Repeat("Whoever commits theft shall be punished with imprisonment. ", 30)
	data := `[{"title":"Theft Act","text":"` + long + `"}]`
	require.NoError(t, os.WriteFile(dataset, []byte(data), 0o644))

	out := filepath.Join(dir, "chunks.json")
	cfg := config.IndexerConfig{
		RawDir:        filepath.Join(dir, "no-such-raw"),
		DatasetPath:   dataset,
		OutputPath:    out,
		ChunkSize:     200,
		ChunkOverlap:  20,
		MinDocChars:   100,
		MinEntryChars: 50,
	}

	stats, err := NewProcessor(cfg, pdfext.NewExtractor()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Documents)
	assert.Positive(t, stats.Chunks)

	chunks, err := repository.LoadChunks(out)
	require.NoError(t, err)
	require.Len(t, chunks, stats.Chunks)
	for i, c := range chunks {
		assert.Equal(t, i, c.ID)
		assert.Equal(t, "Theft Act", c.SourceDocument)
	}
}

func TestRunEmptyCorpusWritesEmptyArtifact(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "chunks.json")
	cfg := config.IndexerConfig{
		RawDir:        filepath.Join(dir, "no-such-raw"),
		OutputPath:    out,
		ChunkSize:     1000,
		ChunkOverlap:  100,
		MinDocChars:   100,
		MinEntryChars: 50,
	}

	stats, err := NewProcessor(cfg, pdfext.NewExtractor()).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Chunks)

	chunks, err := repository.LoadChunks(out)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}
