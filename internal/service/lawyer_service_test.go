package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qanoon-go/internal/model"
)

type fakeLawyerRepo struct {
	records []model.LawyerRecord
}

func (f *fakeLawyerRepo) Snapshot() []model.LawyerRecord { return f.records }

func lawyerDirectory() []model.LawyerRecord {
	records := []model.LawyerRecord{
		{Name: "Ayesha Khan", Specialty: "Criminal Law", SpecialtyTags: []string{"criminal", "theft", "murder"}},
		{Name: "Bilal Ahmed", Specialty: "Corporate Law", SpecialtyTags: []string{"corporate", "contracts"}},
		{Name: "Sana Malik", Specialty: "Family Law", SpecialtyTags: []string{"family", "divorce", "custody"}},
		{Name: "Usman Tariq", Specialty: "Criminal Defence", SpecialtyTags: []string{"criminal", "bail"}},
	}
	// Pad the directory so the browse fallbacks have something to cut.
	for i := len(records); i < 12; i++ {
		records = append(records, model.LawyerRecord{
			Name:          fmt.Sprintf("Lawyer %d", i),
			Specialty:     "Property Law",
			SpecialtyTags: []string{"property"},
		})
	}
	return records
}

func TestMatchRanksBySpecialtyOverlap(t *testing.T) {
	svc := NewLawyerService(&fakeLawyerRepo{records: lawyerDirectory()})

	got := svc.Match("I need help with a theft and murder case, criminal matter")
	require.NotEmpty(t, got)

	// Ayesha matches criminal+theft+murder, Usman only criminal.
	assert.Equal(t, "Ayesha Khan", got[0].Lawyer.Name)
	assert.Equal(t, 3, got[0].Score)
	require.Len(t, got, 2)
	assert.Equal(t, "Usman Tariq", got[1].Lawyer.Name)
}

func TestMatchExcludesZeroScores(t *testing.T) {
	svc := NewLawyerService(&fakeLawyerRepo{records: lawyerDirectory()})

	for _, rec := range svc.Match("divorce and custody dispute") {
		assert.Positive(t, rec.Score)
		assert.NotEqual(t, "Bilal Ahmed", rec.Lawyer.Name)
	}
}

func TestMatchTieBreakIsDirectoryOrder(t *testing.T) {
	svc := NewLawyerService(&fakeLawyerRepo{records: lawyerDirectory()})

	got := svc.Match("criminal")
	require.Len(t, got, 2)
	assert.Equal(t, "Ayesha Khan", got[0].Lawyer.Name)
	assert.Equal(t, "Usman Tariq", got[1].Lawyer.Name)
	assert.Equal(t, got[0].Score, got[1].Score)
}

func TestMatchEmptyQuery(t *testing.T) {
	svc := NewLawyerService(&fakeLawyerRepo{records: lawyerDirectory()})

	assert.Empty(t, svc.Match(""))
	assert.Empty(t, svc.Match("   "))
}

func TestBrowseGeneralReturnsFirstTen(t *testing.T) {
	svc := NewLawyerService(&fakeLawyerRepo{records: lawyerDirectory()})

	got := svc.Browse("general")
	require.Len(t, got, 10)
	assert.Equal(t, "Ayesha Khan", got[0].Name)

	assert.Equal(t, got, svc.Browse(""))
}

func TestBrowseFiltersByCategory(t *testing.T) {
	svc := NewLawyerService(&fakeLawyerRepo{records: lawyerDirectory()})

	got := svc.Browse("criminal")
	require.Len(t, got, 2)
	assert.Equal(t, "Ayesha Khan", got[0].Name)
	assert.Equal(t, "Usman Tariq", got[1].Name)

	// Category matching is case-insensitive and also hits the specialty text.
	assert.Equal(t, got, svc.Browse("  Criminal "))
	family := svc.Browse("family")
	require.Len(t, family, 1)
	assert.Equal(t, "Sana Malik", family[0].Name)
}

func TestBrowseUnknownCategoryFallsBackToFive(t *testing.T) {
	svc := NewLawyerService(&fakeLawyerRepo{records: lawyerDirectory()})

	got := svc.Browse("maritime")
	require.Len(t, got, 5)
	assert.Equal(t, "Ayesha Khan", got[0].Name)
}

func TestBrowseSmallDirectory(t *testing.T) {
	svc := NewLawyerService(&fakeLawyerRepo{records: lawyerDirectory()[:3]})

	assert.Len(t, svc.Browse("general"), 3)
	assert.Len(t, svc.Browse("maritime"), 3)
}
