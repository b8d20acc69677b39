package service

import (
	"context"
	"log"
	"strings"
	"time"

	"practice-service/internal/apperrors"
	"practice-service/internal/clock"
	"practice-service/internal/config"
	"practice-service/internal/event"
	"practice-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// SessionService owns the quiz session lifecycle: creation, timer sync,
// progress checkpoints, resume, and final submission with grace-period
// validation and scoring. All timing decisions are anchored to the service
// clock; client-reported elapsed time is never consulted.
type SessionService struct {
	Sessions  SessionStore
	Answers   AnswerStore
	Progress  *ProgressService
	Publisher Publisher

	clk      clock.Clock
	duration time.Duration
	grace    time.Duration
}

func NewSessionService(
	sessions SessionStore,
	answers AnswerStore,
	progress *ProgressService,
	publisher Publisher,
	clk clock.Clock,
	cfg config.SessionConfig,
) *SessionService {
	return &SessionService{
		Sessions:  sessions,
		Answers:   answers,
		Progress:  progress,
		Publisher: publisher,
		clk:       clk,
		duration:  cfg.Duration,
		grace:     cfg.Grace,
	}
}

type CreateSessionInput struct {
	UserID         string
	Topic          string
	Title          string
	Difficulty     string
	Questions      []string
	Options        [][]string
	CorrectAnswers []string
	Explanations   []string
}

type TimerSync struct {
	ServerTime           time.Time `json:"server_time"`
	ElapsedSeconds       int       `json:"elapsed_seconds"`
	RemainingSeconds     int       `json:"remaining_seconds"`
	IsExpired            bool      `json:"is_expired"`
	IsCompleted          bool      `json:"is_completed"`
	CurrentQuestionIndex int       `json:"current_question_index"`
	UserAnswers          []*string `json:"user_answers"`
}

type SubmitResult struct {
	Score          int     `json:"score"`
	TimeTaken      string  `json:"time_taken"`
	TotalQuestions int     `json:"total_questions"`
	Percentage     float64 `json:"percentage"`
}

// CreateSession persists a new timed session with server-stamped start time
// and all answer slots empty.
func (s *SessionService) CreateSession(ctx context.Context, input CreateSessionInput) (*models.QuizSession, error) {
	n := len(input.Questions)
	if n == 0 {
		return nil, apperrors.NewValidation("at least one question is required")
	}
	if len(input.Options) != n || len(input.CorrectAnswers) != n {
		return nil, apperrors.NewValidation(
			"questions, options and correct answers must have equal length (got %d/%d/%d)",
			n, len(input.Options), len(input.CorrectAnswers))
	}
	if len(input.Explanations) != 0 && len(input.Explanations) != n {
		return nil, apperrors.NewValidation("explanations must be empty or match question count")
	}
	for i, opts := range input.Options {
		if len(opts) != 4 {
			return nil, apperrors.NewValidation("question %d must have exactly 4 options, got %d", i, len(opts))
		}
	}

	if input.UserID == "" {
		input.UserID = models.AnonymousUserID
	}

	now := s.clk.Now()
	session := &models.QuizSession{
		UserID:          input.UserID,
		Topic:           input.Topic,
		Title:           input.Title,
		Difficulty:      input.Difficulty,
		Questions:       input.Questions,
		Options:         input.Options,
		CorrectAnswers:  input.CorrectAnswers,
		Explanations:    input.Explanations,
		StartTime:       now,
		DurationSeconds: int(s.duration.Seconds()),
		EndTime:         now.Add(s.duration),
		UserAnswers:     make([]*string, n),
		LastSaved:       now,
	}

	if err := s.Sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	if s.Publisher != nil {
		_ = s.Publisher.Publish(event.SessionCreated, map[string]interface{}{
			"session_id": session.ID,
			"user_id":    session.UserID,
			"topic":      session.Topic,
		})
	}
	return session, nil
}

// SyncTimer anchors the client countdown to server time and returns the
// current progress snapshot.
func (s *SessionService) SyncTimer(ctx context.Context, id string) (*TimerSync, error) {
	session, err := s.findSession(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.clk.Now()
	return &TimerSync{
		ServerTime:           now,
		ElapsedSeconds:       session.ElapsedSeconds(now),
		RemainingSeconds:     session.RemainingSeconds(now),
		IsExpired:            session.IsExpired(now),
		IsCompleted:          session.IsCompleted,
		CurrentQuestionIndex: session.CurrentQuestionIndex,
		UserAnswers:          session.UserAnswers,
	}, nil
}

// SaveProgress overwrites the progress fields of an in-flight session.
// Checkpoints are rejected once the nominal window closes; the submission
// grace period does not apply here.
func (s *SessionService) SaveProgress(ctx context.Context, id, callerID string, answers []*string, currentIndex int) error {
	session, err := s.findSession(ctx, id)
	if err != nil {
		return err
	}
	if err := checkOwnership(session, callerID); err != nil {
		return err
	}
	if session.IsCompleted {
		return apperrors.NewCompleted("session %s is already completed", id)
	}
	now := s.clk.Now()
	if session.IsExpired(now) {
		return apperrors.NewExpired("session %s expired %d seconds ago",
			id, session.ElapsedSeconds(now)-session.DurationSeconds)
	}
	n := len(session.Questions)
	if len(answers) > n {
		return apperrors.NewValidation("got %d answers for %d questions", len(answers), n)
	}
	if currentIndex < 0 || currentIndex >= n {
		return apperrors.NewValidation("current question index %d out of range", currentIndex)
	}

	// Last write wins on progress; pad short answer arrays to full length.
	padded := make([]*string, n)
	copy(padded, answers)

	return s.Sessions.Update(ctx, id, bson.M{
		"user_answers":           padded,
		"current_question_index": currentIndex,
		"last_saved":             now,
	})
}

// Submit is the terminal operation. A late submission is accepted inside
// the grace period to absorb network latency; a second submission against a
// completed session is rejected without re-scoring so points and streaks
// are never double-credited.
func (s *SessionService) Submit(ctx context.Context, id, callerID string, answers []*string) (*SubmitResult, error) {
	session, err := s.findSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkOwnership(session, callerID); err != nil {
		return nil, err
	}
	if session.IsCompleted {
		return nil, apperrors.NewCompleted("session %s is already completed", id)
	}

	now := s.clk.Now()
	elapsed := session.ElapsedSeconds(now)
	graceSeconds := int(s.grace.Seconds())
	if elapsed > session.DurationSeconds+graceSeconds {
		return nil, apperrors.NewExpired("submission window closed for session %s", id)
	}

	n := len(session.Questions)
	if len(answers) > n {
		return nil, apperrors.NewValidation("got %d answers for %d questions", len(answers), n)
	}
	padded := make([]*string, n)
	copy(padded, answers)

	score := scoreAnswers(session.CorrectAnswers, padded)
	timeTaken := models.FormatTimeTaken(elapsed)

	err = s.Sessions.Update(ctx, id, bson.M{
		"user_answers": padded,
		"score":        score,
		"time_taken":   timeTaken,
		"is_completed": true,
		"last_saved":   now,
	})
	if err != nil {
		return nil, err
	}

	// Everything below is best-effort: the score result is never lost to a
	// failure in the aggregation pipeline.
	s.recordSideEffects(ctx, session, padded, score, elapsed, now)

	return &SubmitResult{
		Score:          score,
		TimeTaken:      timeTaken,
		TotalQuestions: n,
		Percentage:     float64(score) / float64(n) * 100,
	}, nil
}

// Resume returns the full session for a page reload reconnecting to an
// in-flight quiz. Completed and expired sessions cannot be resumed.
func (s *SessionService) Resume(ctx context.Context, id, callerID string) (*models.QuizSession, error) {
	session, err := s.findSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkOwnership(session, callerID); err != nil {
		return nil, err
	}
	if session.IsCompleted {
		return nil, apperrors.NewCompleted("session %s is already completed", id)
	}
	if session.IsExpired(s.clk.Now()) {
		return nil, apperrors.NewExpired("session %s has expired", id)
	}
	return session, nil
}

// SessionAnswers returns the graded answer rows for a submitted session.
func (s *SessionService) SessionAnswers(ctx context.Context, id, callerID string) ([]models.SessionAnswer, error) {
	session, err := s.findSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkOwnership(session, callerID); err != nil {
		return nil, err
	}
	return s.Answers.FindBySession(ctx, id)
}

// UserSessions lists a user's most recent sessions, newest first.
func (s *SessionService) UserSessions(ctx context.Context, userID string, limit int64) ([]models.QuizSession, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.Sessions.FindByUser(ctx, userID, limit)
}

func (s *SessionService) findSession(ctx context.Context, id string) (*models.QuizSession, error) {
	session, err := s.Sessions.FindByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		return nil, apperrors.NewNotFound("session %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (s *SessionService) recordSideEffects(ctx context.Context, session *models.QuizSession, answers []*string, score, elapsed int, now time.Time) {
	if err := s.storeAnswerRows(ctx, session, answers, now); err != nil {
		log.Printf("failed to store answer rows for session %s: %v", session.ID, err)
	}

	if s.Publisher != nil {
		_ = s.Publisher.Publish(event.SessionSubmitted, map[string]interface{}{
			"session_id": session.ID,
			"user_id":    session.UserID,
			"score":      score,
		})
	}

	if session.UserID == models.AnonymousUserID {
		return
	}
	if s.Progress == nil {
		return
	}
	if err := s.Progress.RecordSubmission(ctx, session.UserID, session.Topic, score, len(session.Questions), elapsed); err != nil {
		log.Printf("failed to record practice for user %s: %v", session.UserID, err)
	}
}

func (s *SessionService) storeAnswerRows(ctx context.Context, session *models.QuizSession, answers []*string, now time.Time) error {
	rows := make([]models.SessionAnswer, len(answers))
	for i, answer := range answers {
		given := ""
		if answer != nil {
			given = *answer
		}
		rows[i] = models.SessionAnswer{
			SessionID:     session.ID,
			QuestionIndex: i,
			UserAnswer:    given,
			CorrectAnswer: session.CorrectAnswers[i],
			IsCorrect:     answerCorrect(session.CorrectAnswers[i], answer),
			AnsweredAt:    now,
		}
	}
	return s.Answers.CreateMany(ctx, rows)
}

// scoreAnswers counts exact matches after trimming surrounding whitespace.
// Matching is case-sensitive and all-or-nothing per question.
func scoreAnswers(correct []string, answers []*string) int {
	score := 0
	for i := range correct {
		if i < len(answers) && answerCorrect(correct[i], answers[i]) {
			score++
		}
	}
	return score
}

func answerCorrect(correct string, answer *string) bool {
	if answer == nil {
		return false
	}
	return strings.TrimSpace(*answer) == strings.TrimSpace(correct)
}

func checkOwnership(session *models.QuizSession, callerID string) error {
	if session.UserID == models.AnonymousUserID {
		return nil
	}
	if session.UserID != callerID {
		return apperrors.NewUnauthorized("session %s does not belong to caller", session.ID)
	}
	return nil
}
