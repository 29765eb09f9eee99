package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/storelens/advisor/internal/model"
	"github.com/storelens/advisor/internal/repository"
)

// RecordRequest is one attempt snapshot handed to the recorder.
type RecordRequest struct {
	QuizID    uint
	StoreID   uint
	SessionID string
	Answers   []model.SelectedAnswers
	Results   []model.RecommendedProduct
	UserAgent string
}

// SessionRecorder persists quiz attempts off the response path. Record never
// blocks and never surfaces an error to the scoring caller: a full queue or a
// failed write is logged and dropped. Conversion updates are synchronous
// because they arrive on their own request path.
type SessionRecorder interface {
	Record(req RecordRequest)
	RecordConversion(ctx context.Context, sessionID string, upd repository.ConversionUpdate) error

	// Start launches the worker; Stop drains the queue and waits for it.
	Start()
	Stop(ctx context.Context) error
}

const (
	recorderWriteTimeout = 5 * time.Second
	recorderMaxAttempts  = 3
	recorderRetryDelay   = 200 * time.Millisecond
)

type sessionRecorder struct {
	sessionRepo repository.SessionRepository
	queue       chan RecordRequest
	done        chan struct{}
	wg          sync.WaitGroup
}

func NewSessionRecorder(sessionRepo repository.SessionRepository, queueSize int) SessionRecorder {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &sessionRecorder{
		sessionRepo: sessionRepo,
		queue:       make(chan RecordRequest, queueSize),
		done:        make(chan struct{}),
	}
}

func (r *sessionRecorder) Start() {
	r.wg.Add(1)
	go r.run()
}

func (r *sessionRecorder) Stop(ctx context.Context) error {
	close(r.done)
	finished := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *sessionRecorder) Record(req RecordRequest) {
	select {
	case r.queue <- req:
	default:
		log.Warn().Str("sessionID", req.SessionID).Uint("quizID", req.QuizID).
			Msg("Session record queue full, dropping attempt record")
	}
}

func (r *sessionRecorder) run() {
	defer r.wg.Done()
	for {
		select {
		case req := <-r.queue:
			r.persist(req)
		case <-r.done:
			// Drain whatever is already queued before exiting.
			for {
				select {
				case req := <-r.queue:
					r.persist(req)
				default:
					return
				}
			}
		}
	}
}

func (r *sessionRecorder) persist(req RecordRequest) {
	answers, err := model.EncodeSelectedAnswers(req.Answers)
	if err != nil {
		log.Error().Err(err).Str("sessionID", req.SessionID).Msg("Recorder: failed to encode answers, dropping record")
		return
	}
	results, err := model.EncodeRecommendedProducts(req.Results)
	if err != nil {
		log.Error().Err(err).Str("sessionID", req.SessionID).Msg("Recorder: failed to encode results, dropping record")
		return
	}

	now := time.Now()
	session := &model.QuizSession{
		QuizID:              req.QuizID,
		StoreID:             req.StoreID,
		SessionID:           req.SessionID,
		Answers:             answers,
		RecommendedProducts: results,
		IsCompleted:         true,
		CompletedAt:         &now,
		UserAgent:           req.UserAgent,
	}

	for attempt := 1; attempt <= recorderMaxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), recorderWriteTimeout)
		err = r.sessionRepo.UpsertBySessionID(ctx, session)
		cancel()
		if err == nil {
			return
		}
		log.Warn().Err(err).Str("sessionID", req.SessionID).Int("attempt", attempt).
			Msg("Recorder: session write failed")
		time.Sleep(recorderRetryDelay)
	}
	log.Error().Err(err).Str("sessionID", req.SessionID).
		Msg("Recorder: giving up on session record after retries")
}

// RecordConversion flips conversion flags on an already recorded session. A
// conversion for an unknown session id is a no-op: conversions never create
// session rows on their own.
func (r *sessionRecorder) RecordConversion(ctx context.Context, sessionID string, upd repository.ConversionUpdate) error {
	rows, err := r.sessionRepo.ApplyConversion(ctx, sessionID, upd)
	if err != nil {
		log.Error().Err(err).Str("sessionID", sessionID).Msg("RecordConversion: update failed")
		return err
	}
	if rows == 0 {
		log.Debug().Str("sessionID", sessionID).Msg("RecordConversion: no session row, ignoring")
	}
	return nil
}
