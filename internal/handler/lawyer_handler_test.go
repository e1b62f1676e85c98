package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qanoon-go/internal/model"
)

type stubLawyerService struct {
	matches     []model.Recommendation
	browsed     []model.LawyerRecord
	gotQuery    string
	gotCategory string
}

func (s *stubLawyerService) Match(query string) []model.Recommendation {
	s.gotQuery = query
	return s.matches
}

func (s *stubLawyerService) Browse(category string) []model.LawyerRecord {
	s.gotCategory = category
	return s.browsed
}

func lawyerRouter(svc *stubLawyerService) *gin.Engine {
	r := gin.New()
	h := NewLawyerHandler(svc)
	r.GET("/api/v1/lawyers", h.List)
	r.GET("/api/v1/lawyers/recommend", h.Recommend)
	return r
}

func TestListDefaultsToGeneralCategory(t *testing.T) {
	svc := &stubLawyerService{browsed: []model.LawyerRecord{{Name: "Ayesha Khan"}}}
	r := lawyerRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/lawyers", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "general", svc.gotCategory)

	var resp struct {
		Code    int                  `json:"code"`
		Message string               `json:"message"`
		Data    []model.LawyerRecord `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 200, resp.Code)
	assert.Equal(t, "success", resp.Message)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Ayesha Khan", resp.Data[0].Name)
}

func TestListPassesCategoryThrough(t *testing.T) {
	svc := &stubLawyerService{}
	r := lawyerRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/lawyers?category=criminal", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "criminal", svc.gotCategory)
}

func TestRecommendRequiresQuery(t *testing.T) {
	r := lawyerRouter(&stubLawyerService{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/lawyers/recommend", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "query parameter is required")
}

func TestRecommendReturnsMatches(t *testing.T) {
	svc := &stubLawyerService{matches: []model.Recommendation{
		{Lawyer: model.LawyerRecord{Name: "Ayesha Khan"}, Score: 3},
	}}
	r := lawyerRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/lawyers/recommend?query=theft+case", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "theft case", svc.gotQuery)

	var resp struct {
		Data []model.Recommendation `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, 3, resp.Data[0].Score)
}
