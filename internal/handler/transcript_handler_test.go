package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Teymccall/UCAES2025-fullstack-system-sub006/internal/models"
	"github.com/Teymccall/UCAES2025-fullstack-system-sub006/internal/service"
	"github.com/Teymccall/UCAES2025-fullstack-system-sub006/pkg/response"
)

type stubStudentStore struct {
	identities map[string]models.StudentIdentity
}

func (s *stubStudentStore) FindByID(ctx context.Context, id string) (*models.StudentIdentity, error) {
	if identity, ok := s.identities[id]; ok {
		return &identity, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubStudentStore) FindByRegistrationNumber(ctx context.Context, regNumber string) (*models.StudentIdentity, error) {
	return nil, sql.ErrNoRows
}

func (s *stubStudentStore) FindByIndexNumber(ctx context.Context, indexNumber string) (*models.StudentIdentity, error) {
	return nil, sql.ErrNoRows
}

func (s *stubStudentStore) Search(ctx context.Context, term string, limit int) ([]models.StudentIdentity, error) {
	var matches []models.StudentIdentity
	for _, identity := range s.identities {
		matches = append(matches, identity)
	}
	return matches, nil
}

type stubGradebook struct {
	groups []models.GradeGroup
}

func (s *stubGradebook) Aggregate(ctx context.Context, identity *models.StudentIdentity) ([]models.GradeGroup, error) {
	return s.groups, nil
}

func newTranscriptTestHandler() *TranscriptHandler {
	store := &stubStudentStore{identities: map[string]models.StudentIdentity{
		"stu-1": {ID: "stu-1", DisplayName: "Ama Mensah"},
	}}
	identities := service.NewIdentityService(store, store, nil)
	gradebook := &stubGradebook{groups: []models.GradeGroup{
		{
			PeriodKey: models.PeriodKey{AcademicYear: "2024/2025", Semester: models.SemesterFirst},
			Records:   []models.GradeRecord{{CourseCode: "CS101", Credits: 3, Grade: "A"}},
		},
	}}
	transcripts := service.NewTranscriptService(identities, gradebook, nil, nil, time.Minute, nil)
	return NewTranscriptHandler(transcripts, identities)
}

func performRequest(h gin.HandlerFunc, method, target string, body []byte) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	h(c)
	return w
}

func TestTranscriptHandlerGetMissingReference(t *testing.T) {
	handler := newTranscriptTestHandler()
	w := performRequest(handler.Get, http.MethodGet, "/transcripts", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTranscriptHandlerGetNotFound(t *testing.T) {
	handler := newTranscriptTestHandler()
	w := performRequest(handler.Get, http.MethodGet, "/transcripts?studentId=missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTranscriptHandlerGetComposesTranscript(t *testing.T) {
	handler := newTranscriptTestHandler()
	w := performRequest(handler.Get, http.MethodGet, "/transcripts?studentId=stu-1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data models.Transcript `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "Ama Mensah", envelope.Data.Student.DisplayName)
	assert.Equal(t, 4.0, envelope.Data.Summary.CumulativeGPA)
}

func TestTranscriptHandlerSearchShortTermReturnsEmpty(t *testing.T) {
	handler := newTranscriptTestHandler()
	body, _ := json.Marshal(map[string]string{"searchTerm": "a"})
	w := performRequest(handler.Search, http.MethodPost, "/transcripts", body)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Nil(t, envelope.Error)
}

func TestTranscriptHandlerExportUnknownFormat(t *testing.T) {
	handler := newTranscriptTestHandler()
	w := performRequest(handler.Export, http.MethodGet, "/transcripts/export?studentId=stu-1&format=xml", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTranscriptHandlerExportCSV(t *testing.T) {
	handler := newTranscriptTestHandler()
	w := performRequest(handler.Export, http.MethodGet, "/transcripts/export?studentId=stu-1&format=csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Body.String(), "CS101")
}
