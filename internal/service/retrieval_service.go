package service

import (
	"sort"

	"qanoon-go/internal/model"
	"qanoon-go/internal/repository"
)

// RetrievalService selects the chunks most relevant to a query.
type RetrievalService interface {
	// TopChunks scores every chunk in the current store snapshot by
	// keyword overlap with the query and returns at most k chunks with a
	// positive score, ordered by descending score, ties broken by chunk
	// id (original store order). An empty store or an all-zero scoring
	// yields an empty selection, never an error.
	TopChunks(query string, k int) []model.ScoredChunk
}

type retrievalService struct {
	chunkRepo repository.ChunkRepository
}

// NewRetrievalService creates a RetrievalService over the chunk store.
func NewRetrievalService(chunkRepo repository.ChunkRepository) RetrievalService {
	return &retrievalService{chunkRepo: chunkRepo}
}

func (s *retrievalService) TopChunks(query string, k int) []model.ScoredChunk {
	if k <= 0 {
		return nil
	}
	queryTokens := tokenSet(query)
	if len(queryTokens) == 0 {
		return nil
	}

	chunks := s.chunkRepo.Snapshot()
	scored := make([]model.ScoredChunk, 0, len(chunks))
	for _, chunk := range chunks {
		score := overlapScore(queryTokens, chunk.Text)
		if score == 0 {
			continue
		}
		scored = append(scored, model.ScoredChunk{Chunk: chunk, Score: score})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score == scored[j].Score {
			return scored[i].Chunk.ID < scored[j].Chunk.ID
		}
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}

// overlapScore counts the distinct query tokens that occur in text.
func overlapScore(queryTokens map[string]struct{}, text string) int {
	textTokens := tokenSet(text)
	score := 0
	for t := range queryTokens {
		if _, ok := textTokens[t]; ok {
			score++
		}
	}
	return score
}
