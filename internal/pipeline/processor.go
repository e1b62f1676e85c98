// Package pipeline implements the offline document indexing flow.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"qanoon-go/internal/config"
	"qanoon-go/internal/model"
	"qanoon-go/internal/repository"
	"qanoon-go/pkg/log"
	"qanoon-go/pkg/pdfext"
)

// Processor turns the raw legal sources into the chunk store artifact.
type Processor struct {
	cfg       config.IndexerConfig
	extractor *pdfext.Extractor
}

// Stats summarises one indexing run.
type Stats struct {
	Documents    int
	SkippedFiles int
	FailedPages  int
	Chunks       int
}

// NewProcessor creates a new Processor instance.
func NewProcessor(cfg config.IndexerConfig, extractor *pdfext.Extractor) *Processor {
	return &Processor{cfg: cfg, extractor: extractor}
}

// document is an extracted source before chunking. Pages carries the
// starting rune offset of each page within Text so chunks can be
// attributed to the page they begin on; it is nil for dataset entries.
type document struct {
	Title   string
	Section string
	Text    string
	Pages   []pageSpan
}

type pageSpan struct {
	Number int
	Start  int // rune offset in document.Text
}

// Run executes the full indexing flow and writes the artifact
// atomically. Per-file and per-page extraction failures are warnings;
// only being unable to write the artifact is an error. An empty corpus
// still writes an (empty) artifact so the service can start.
func (p *Processor) Run(ctx context.Context) (Stats, error) {
	var stats Stats

	log.Infof("[Indexer] step 1: scanning '%s' for PDF sources", p.cfg.RawDir)
	docs, err := p.extractPDFs(&stats)
	if err != nil {
		return stats, err
	}

	log.Infof("[Indexer] step 2: loading dataset '%s'", p.cfg.DatasetPath)
	docs = append(docs, p.loadDataset(&stats)...)
	stats.Documents = len(docs)
	log.Infof("[Indexer] %d documents captured (%d sources skipped, %d pages failed)",
		stats.Documents, stats.SkippedFiles, stats.FailedPages)

	log.Infof("[Indexer] step 3: chunking, chunkSize: %d, chunkOverlap: %d", p.cfg.ChunkSize, p.cfg.ChunkOverlap)
	var chunks []model.Chunk
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		chunks = append(chunks, chunkDocument(doc, len(chunks), p.cfg.ChunkSize, p.cfg.ChunkOverlap)...)
	}
	stats.Chunks = len(chunks)
	if stats.Chunks == 0 {
		log.Warnf("[Indexer] no chunks produced; writing an empty chunk store")
	}

	log.Infof("[Indexer] step 4: writing %d chunks to '%s'", stats.Chunks, p.cfg.OutputPath)
	if err := repository.WriteChunks(p.cfg.OutputPath, chunks); err != nil {
		return stats, fmt.Errorf("failed to write chunk store: %w", err)
	}
	return stats, nil
}

// extractPDFs extracts every readable PDF in the raw directory, page by
// page. Files are processed in name order so chunk ids are stable across
// runs over the same corpus.
func (p *Processor) extractPDFs(stats *Stats) ([]document, error) {
	entries, err := os.ReadDir(p.cfg.RawDir)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warnf("[Indexer] raw directory '%s' does not exist, skipping PDFs", p.cfg.RawDir)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read raw directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var docs []document
	for _, name := range names {
		path := filepath.Join(p.cfg.RawDir, name)
		pages, failed, err := p.extractor.ExtractPages(path)
		if err != nil {
			log.Warnf("[Indexer] unreadable file '%s', skipping: %v", name, err)
			stats.SkippedFiles++
			continue
		}
		if len(failed) > 0 {
			log.Warnf("[Indexer] '%s': %d page(s) failed extraction and were omitted: %v", name, len(failed), failed)
			stats.FailedPages += len(failed)
		}

		doc := assembleDocument(strings.TrimSuffix(name, filepath.Ext(name)), pages)
		if len([]rune(doc.Text)) < p.cfg.MinDocChars {
			log.Warnf("[Indexer] '%s' produced only %d characters, skipping", name, len([]rune(doc.Text)))
			stats.SkippedFiles++
			continue
		}
		log.Infof("[Indexer] captured '%s': %d pages, %d characters", name, len(pages), len([]rune(doc.Text)))
		docs = append(docs, doc)
	}
	return docs, nil
}

// assembleDocument joins cleaned page texts into one document while
// recording where each page starts, for chunk attribution.
func assembleDocument(title string, pages []pdfext.PageText) document {
	var b strings.Builder
	var spans []pageSpan
	offset := 0
	for _, page := range pages {
		text := cleanText(page.Text)
		if text == "" {
			continue
		}
		if offset > 0 {
			b.WriteString(" ")
			offset++
		}
		spans = append(spans, pageSpan{Number: page.Number, Start: offset})
		b.WriteString(text)
		offset += len([]rune(text))
	}
	return document{Title: title, Text: b.String(), Pages: spans}
}

// datasetEntry tolerates the two field spellings found in the verified
// laws dataset.
type datasetEntry struct {
	Title    string `json:"title"`
	FileName string `json:"file_name"`
	Text     string `json:"text"`
	Content  string `json:"content"`
}

// loadDataset ingests the verified-laws JSON dataset; each entry becomes
// its own document. A missing or unreadable dataset is a warning.
func (p *Processor) loadDataset(stats *Stats) []document {
	if p.cfg.DatasetPath == "" {
		return nil
	}
	data, err := os.ReadFile(p.cfg.DatasetPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warnf("[Indexer] dataset '%s' not found, skipping", p.cfg.DatasetPath)
		} else {
			log.Warnf("[Indexer] failed to read dataset '%s', skipping: %v", p.cfg.DatasetPath, err)
			stats.SkippedFiles++
		}
		return nil
	}

	var entries []datasetEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		log.Warnf("[Indexer] dataset '%s' is not a JSON array, skipping: %v", p.cfg.DatasetPath, err)
		stats.SkippedFiles++
		return nil
	}

	var docs []document
	for _, e := range entries {
		title := e.Title
		if title == "" {
			title = e.FileName
		}
		if title == "" {
			title = "Unknown Law"
		}
		text := e.Text
		if text == "" {
			text = e.Content
		}
		text = cleanText(text)
		if len([]rune(text)) < p.cfg.MinEntryChars {
			continue
		}
		docs = append(docs, document{Title: title, Section: "Legal Dataset", Text: text})
	}
	log.Infof("[Indexer] dataset contributed %d entries", len(docs))
	return docs
}

// chunkDocument splits one document into overlapping rune windows and
// labels each chunk with the page it starts on (or the dataset section).
func chunkDocument(doc document, nextID, chunkSize, chunkOverlap int) []model.Chunk {
	var chunks []model.Chunk
	for _, span := range splitText(doc.Text, chunkSize, chunkOverlap) {
		section := doc.Section
		if len(doc.Pages) > 0 {
			section = fmt.Sprintf("page %d", pageAt(doc.Pages, span.start))
		}
		chunks = append(chunks, model.Chunk{
			ID:             nextID + len(chunks),
			Text:           span.text,
			SourceDocument: doc.Title,
			PageOrSection:  section,
		})
	}
	return chunks
}

// pageAt returns the number of the page containing the rune offset.
func pageAt(pages []pageSpan, offset int) int {
	page := pages[0].Number
	for _, span := range pages {
		if span.Start > offset {
			break
		}
		page = span.Number
	}
	return page
}

type textSpan struct {
	start int // rune offset
	text  string
}

// splitText cuts the text into windows of chunkSize runes advancing by
// chunkSize-chunkOverlap, so consecutive chunks share chunkOverlap runes
// of context across the boundary.
func splitText(text string, chunkSize, chunkOverlap int) []textSpan {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if chunkSize <= 0 {
		return nil
	}
	step := chunkSize - chunkOverlap
	if step <= 0 {
		// Invalid overlap: fall back to disjoint windows.
		step = chunkSize
	}

	var spans []textSpan
	for i := 0; i < len(runes); i += step {
		end := i + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		spans = append(spans, textSpan{start: i, text: string(runes[i:end])})
		if end == len(runes) {
			break
		}
	}
	return spans
}

// cleanText collapses all whitespace runs to single spaces.
func cleanText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
