package service

import (
	"context"
	"testing"
	"time"

	"github.com/storelens/advisor/internal/model"
	"github.com/storelens/advisor/internal/repository"
)

func TestRecorderPersistsOnStop(t *testing.T) {
	db := setupTestDB(t)
	sessionRepo := repository.NewSessionRepository(db)

	recorder := NewSessionRecorder(sessionRepo, 8)
	recorder.Start()

	recorder.Record(RecordRequest{
		QuizID:    1,
		StoreID:   1,
		SessionID: "sess-abc",
		Answers:   []model.SelectedAnswers{{QuestionID: 1, AnswerIDs: []uint{2, 3}}},
		Results:   []model.RecommendedProduct{{ProductID: 7, Score: 30, MatchPercentage: 75}},
		UserAgent: "test-agent",
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := recorder.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	session, err := sessionRepo.FindBySessionID(context.Background(), "sess-abc")
	if err != nil {
		t.Fatalf("session was not persisted: %v", err)
	}
	if !session.IsCompleted || session.CompletedAt == nil {
		t.Error("persisted session must be marked completed with a timestamp")
	}
	if session.UserAgent != "test-agent" {
		t.Errorf("user agent = %q, want %q", session.UserAgent, "test-agent")
	}

	answers, err := model.DecodeSelectedAnswers(session.Answers)
	if err != nil {
		t.Fatalf("decode answers: %v", err)
	}
	if len(answers) != 1 || answers[0].QuestionID != 1 || len(answers[0].AnswerIDs) != 2 {
		t.Errorf("answers snapshot = %+v", answers)
	}
	results, err := model.DecodeRecommendedProducts(session.RecommendedProducts)
	if err != nil {
		t.Fatalf("decode results: %v", err)
	}
	if len(results) != 1 || results[0].ProductID != 7 || results[0].MatchPercentage != 75 {
		t.Errorf("results snapshot = %+v", results)
	}
}

func TestRecorderLastWriteWinsPerSessionID(t *testing.T) {
	db := setupTestDB(t)
	sessionRepo := repository.NewSessionRepository(db)

	recorder := NewSessionRecorder(sessionRepo, 8)
	recorder.Start()

	recorder.Record(RecordRequest{
		QuizID:    1,
		SessionID: "sess-dup",
		Results:   []model.RecommendedProduct{{ProductID: 1, Score: 10}},
	})
	recorder.Record(RecordRequest{
		QuizID:    1,
		SessionID: "sess-dup",
		Results:   []model.RecommendedProduct{{ProductID: 2, Score: 20}},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := recorder.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	var count int64
	if err := db.Model(&model.QuizSession{}).Where("session_id = ?", "sess-dup").Count(&count).Error; err != nil {
		t.Fatalf("count sessions: %v", err)
	}
	if count != 1 {
		t.Fatalf("session rows = %d, want 1 (same session id must not duplicate)", count)
	}

	session, err := sessionRepo.FindBySessionID(context.Background(), "sess-dup")
	if err != nil {
		t.Fatalf("find session: %v", err)
	}
	results, err := model.DecodeRecommendedProducts(session.RecommendedProducts)
	if err != nil {
		t.Fatalf("decode results: %v", err)
	}
	if len(results) != 1 || results[0].ProductID != 2 {
		t.Errorf("stored results = %+v, want the later write's snapshot", results)
	}
}

func TestRecordConversionUpdatesFlags(t *testing.T) {
	db := setupTestDB(t)
	sessionRepo := repository.NewSessionRepository(db)
	seedSession(t, db, 1, "sess-conv", true, time.Now(), nil, nil)

	recorder := NewSessionRecorder(sessionRepo, 8)

	orderID := uint(42)
	err := recorder.RecordConversion(context.Background(), "sess-conv", repository.ConversionUpdate{
		Cart:    true,
		Order:   true,
		OrderID: &orderID,
	})
	if err != nil {
		t.Fatalf("RecordConversion: %v", err)
	}

	session, err := sessionRepo.FindBySessionID(context.Background(), "sess-conv")
	if err != nil {
		t.Fatalf("find session: %v", err)
	}
	if !session.ConvertedToCart || !session.ConvertedToOrder {
		t.Errorf("conversion flags = cart:%v order:%v, want both true",
			session.ConvertedToCart, session.ConvertedToOrder)
	}
	if session.OrderID == nil || *session.OrderID != orderID {
		t.Errorf("order id = %v, want %d", session.OrderID, orderID)
	}
}

func TestRecordConversionUnknownSessionIsNoOp(t *testing.T) {
	db := setupTestDB(t)
	recorder := NewSessionRecorder(repository.NewSessionRepository(db), 8)

	err := recorder.RecordConversion(context.Background(), "never-seen", repository.ConversionUpdate{Cart: true})
	if err != nil {
		t.Fatalf("conversion for an unknown session must not error, got %v", err)
	}
}

func TestRecorderDropsWhenQueueFull(t *testing.T) {
	db := setupTestDB(t)
	recorder := NewSessionRecorder(repository.NewSessionRepository(db), 1)

	// Worker not started: the second record has nowhere to go and must not
	// block the caller.
	done := make(chan struct{})
	go func() {
		recorder.Record(RecordRequest{SessionID: "first"})
		recorder.Record(RecordRequest{SessionID: "second"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Record blocked on a full queue")
	}
}
