package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/storelens/advisor/internal/dto"
	"github.com/storelens/advisor/internal/repository"
	"github.com/storelens/advisor/internal/service"
)

type stubAdvisorService struct {
	calculateResp *dto.CalculateResponse
	quizResp      *dto.QuizResponseDTO
	err           error
}

func (s *stubAdvisorService) Calculate(ctx context.Context, req dto.CalculateRequest, userAgent string) (*dto.CalculateResponse, error) {
	return s.calculateResp, s.err
}

func (s *stubAdvisorService) StartQuiz(ctx context.Context, quizID uint) (*dto.QuizResponseDTO, error) {
	return s.quizResp, s.err
}

func (s *stubAdvisorService) GetQuiz(ctx context.Context, quizID uint) (*dto.QuizResponseDTO, error) {
	return s.quizResp, s.err
}

type stubRecorder struct {
	conversions map[string]repository.ConversionUpdate
	err         error
}

func (s *stubRecorder) Record(req service.RecordRequest) {}

func (s *stubRecorder) RecordConversion(ctx context.Context, sessionID string, upd repository.ConversionUpdate) error {
	if s.conversions == nil {
		s.conversions = map[string]repository.ConversionUpdate{}
	}
	s.conversions[sessionID] = upd
	return s.err
}

func (s *stubRecorder) Start()                         {}
func (s *stubRecorder) Stop(ctx context.Context) error { return nil }

func newStorefrontRouter(svc service.AdvisorService, recorder service.SessionRecorder) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	ctrl := NewAdvisorController(svc, recorder)
	router.POST("/advisor/calculate", ctrl.Calculate)
	router.GET("/advisor/quizzes/:quiz_id", ctrl.GetQuiz)
	router.POST("/advisor/quizzes/:quiz_id/start", ctrl.StartQuiz)
	router.POST("/advisor/sessions/:session_id/conversion", ctrl.RecordConversion)
	return router
}

func postJSON(router *gin.Engine, path string, payload interface{}) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestCalculateEndpoint(t *testing.T) {
	svc := &stubAdvisorService{
		calculateResp: &dto.CalculateResponse{
			Results:              []dto.RecommendationDTO{{ProductID: 1, Score: 30, MatchPercentage: 75}},
			SessionID:            "sess-1",
			TotalProductsMatched: 1,
		},
	}
	router := newStorefrontRouter(svc, &stubRecorder{})

	w := postJSON(router, "/advisor/calculate", dto.CalculateRequest{
		QuizID:  1,
		Answers: []dto.QuestionAnswersDTO{{QuestionID: 1, AnswerIDs: []uint{2}}},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}

	var resp dto.CalculateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.SessionID != "sess-1" || resp.TotalProductsMatched != 1 {
		t.Errorf("response = %+v", resp)
	}
}

func TestCalculateEndpointRejectsMalformedBody(t *testing.T) {
	router := newStorefrontRouter(&stubAdvisorService{}, &stubRecorder{})

	// Missing answers entirely; binding must reject before the service runs.
	w := postJSON(router, "/advisor/calculate", map[string]interface{}{"quiz_id": 1})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestServiceErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"invalid input", fmt.Errorf("bad: %w", service.ErrInvalidInput), http.StatusBadRequest},
		{"inactive quiz", fmt.Errorf("quiz 1: %w", service.ErrQuizInactive), http.StatusBadRequest},
		{"not found", fmt.Errorf("quiz 1: %w", service.ErrNotFound), http.StatusNotFound},
		{"dependency down", fmt.Errorf("db: %w", service.ErrDependencyUnavailable), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newStorefrontRouter(&stubAdvisorService{err: tt.err}, &stubRecorder{})
			w := postJSON(router, "/advisor/calculate", dto.CalculateRequest{
				QuizID:  1,
				Answers: []dto.QuestionAnswersDTO{{QuestionID: 1, AnswerIDs: []uint{2}}},
			})
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestInternalErrorHidesDetail(t *testing.T) {
	router := newStorefrontRouter(&stubAdvisorService{
		err: fmt.Errorf("dsn=postgres://user:hunter2@db: %w", service.ErrDependencyUnavailable),
	}, &stubRecorder{})

	w := postJSON(router, "/advisor/calculate", dto.CalculateRequest{
		QuizID:  1,
		Answers: []dto.QuestionAnswersDTO{{QuestionID: 1, AnswerIDs: []uint{2}}},
	})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if bytes.Contains(w.Body.Bytes(), []byte("hunter2")) {
		t.Error("internal error detail leaked into the response body")
	}
}

func TestRecordConversionEndpoint(t *testing.T) {
	recorder := &stubRecorder{}
	router := newStorefrontRouter(&stubAdvisorService{}, recorder)

	orderID := uint(9)
	w := postJSON(router, "/advisor/sessions/sess-42/conversion", dto.ConversionRequest{
		Order:   true,
		OrderID: &orderID,
	})
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204; body: %s", w.Code, w.Body.String())
	}

	upd, ok := recorder.conversions["sess-42"]
	if !ok {
		t.Fatal("conversion was not forwarded to the recorder")
	}
	if !upd.Order || upd.OrderID == nil || *upd.OrderID != orderID {
		t.Errorf("conversion update = %+v", upd)
	}
}

func TestGetQuizInvalidID(t *testing.T) {
	router := newStorefrontRouter(&stubAdvisorService{}, &stubRecorder{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/advisor/quizzes/not-a-number", nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
