package service

import (
	"sort"
	"strings"

	"qanoon-go/internal/model"
	"qanoon-go/internal/repository"
)

// LawyerService matches lawyers from the static directory against user
// queries. Both operations are pure functions of (input, directory).
type LawyerService interface {
	// Match scores every lawyer by overlap between the query tokens and
	// the lawyer's specialty tags (and specialty text) and returns only
	// those with a positive score, ordered by descending score, ties
	// broken by directory order.
	Match(query string) []model.Recommendation
	// Browse implements the category listing: "general" or an empty
	// category returns the first 10 entries, a category with no matches
	// falls back to the first 5. Never an error.
	Browse(category string) []model.LawyerRecord
}

type lawyerService struct {
	lawyerRepo repository.LawyerRepository
}

// NewLawyerService creates a LawyerService over the lawyer directory.
func NewLawyerService(lawyerRepo repository.LawyerRepository) LawyerService {
	return &lawyerService{lawyerRepo: lawyerRepo}
}

func (s *lawyerService) Match(query string) []model.Recommendation {
	queryTokens := tokenSet(query)
	if len(queryTokens) == 0 {
		return []model.Recommendation{}
	}

	records := s.lawyerRepo.Snapshot()
	type indexed struct {
		rec   model.Recommendation
		order int
	}
	matched := make([]indexed, 0, len(records))
	for i, lawyer := range records {
		score := tagOverlap(queryTokens, lawyer)
		if score == 0 {
			continue
		}
		matched = append(matched, indexed{
			rec:   model.Recommendation{Lawyer: lawyer, Score: score},
			order: i,
		})
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].rec.Score == matched[j].rec.Score {
			return matched[i].order < matched[j].order
		}
		return matched[i].rec.Score > matched[j].rec.Score
	})

	out := make([]model.Recommendation, 0, len(matched))
	for _, m := range matched {
		out = append(out, m.rec)
	}
	return out
}

func (s *lawyerService) Browse(category string) []model.LawyerRecord {
	records := s.lawyerRepo.Snapshot()
	category = strings.ToLower(strings.TrimSpace(category))

	if category == "" || category == "general" {
		return head(records, 10)
	}

	var filtered []model.LawyerRecord
	for _, lawyer := range records {
		if lawyerHasCategory(lawyer, category) {
			filtered = append(filtered, lawyer)
		}
	}
	if len(filtered) == 0 {
		// No specialist found; surface a short general list instead.
		return head(records, 5)
	}
	return filtered
}

// tagOverlap counts distinct query tokens that appear among the lawyer's
// lowercased specialty tags or in the specialty text.
func tagOverlap(queryTokens map[string]struct{}, lawyer model.LawyerRecord) int {
	lawyerTokens := make(map[string]struct{}, len(lawyer.SpecialtyTags))
	for _, tag := range lawyer.SpecialtyTags {
		for _, t := range tokenize(tag) {
			lawyerTokens[t] = struct{}{}
		}
	}
	for _, t := range tokenize(lawyer.Specialty) {
		lawyerTokens[t] = struct{}{}
	}

	score := 0
	for t := range queryTokens {
		if _, ok := lawyerTokens[t]; ok {
			score++
		}
	}
	return score
}

func lawyerHasCategory(lawyer model.LawyerRecord, category string) bool {
	for _, tag := range lawyer.SpecialtyTags {
		if strings.ToLower(tag) == category {
			return true
		}
	}
	return strings.Contains(strings.ToLower(lawyer.Specialty), category)
}

func head(records []model.LawyerRecord, n int) []model.LawyerRecord {
	if len(records) > n {
		return records[:n]
	}
	return records
}
