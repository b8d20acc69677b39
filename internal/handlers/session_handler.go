package handlers

import (
	"context"
	"net/http"
	"strconv"

	"practice-service/internal/models"
	"practice-service/internal/service"

	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	Service *service.SessionService
}

func NewSessionHandler(s *service.SessionService) *SessionHandler {
	return &SessionHandler{Service: s}
}

// CreateSession starts a new timed quiz session for the authenticated user.
func (h *SessionHandler) CreateSession(c *gin.Context) {
	h.createSession(c, c.GetHeader("X-User-ID"))
}

// CreateAnonymousSession starts an ungated practice session with no owner.
func (h *SessionHandler) CreateAnonymousSession(c *gin.Context) {
	h.createSession(c, models.AnonymousUserID)
}

func (h *SessionHandler) createSession(c *gin.Context, userID string) {
	var req struct {
		Topic          string     `json:"topic"`
		Title          string     `json:"title"`
		Difficulty     string     `json:"difficulty"`
		Questions      []string   `json:"questions" binding:"required"`
		Options        [][]string `json:"options" binding:"required"`
		CorrectAnswers []string   `json:"correctAnswers" binding:"required"`
		Explanations   []string   `json:"explanations"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	session, err := h.Service.CreateSession(context.Background(), service.CreateSessionInput{
		UserID:         userID,
		Topic:          req.Topic,
		Title:          req.Title,
		Difficulty:     req.Difficulty,
		Questions:      req.Questions,
		Options:        req.Options,
		CorrectAnswers: req.CorrectAnswers,
		Explanations:   req.Explanations,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"sessionId": session.ID,
		"startTime": session.StartTime,
		"endTime":   session.EndTime,
		"duration":  session.DurationSeconds,
	})
}

// SyncTimer returns the authoritative remaining time and progress snapshot.
func (h *SessionHandler) SyncTimer(c *gin.Context) {
	sync, err := h.Service.SyncTimer(context.Background(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sync)
}

// SaveProgress checkpoints the client's answers-so-far.
func (h *SessionHandler) SaveProgress(c *gin.Context) {
	var req struct {
		UserAnswers          []*string `json:"userAnswers"`
		CurrentQuestionIndex int       `json:"currentQuestionIndex"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.Service.SaveProgress(
		context.Background(),
		c.Param("id"),
		c.GetHeader("X-User-ID"),
		req.UserAnswers,
		req.CurrentQuestionIndex,
	)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Progress saved"})
}

// Submit finalizes the session, scores it and reports the result.
func (h *SessionHandler) Submit(c *gin.Context) {
	var req struct {
		UserAnswers []*string `json:"userAnswers"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.Service.Submit(
		context.Background(),
		c.Param("id"),
		c.GetHeader("X-User-ID"),
		req.UserAnswers,
	)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Resume returns the full session so a reloaded page can reconnect without
// resetting the timer.
func (h *SessionHandler) Resume(c *gin.Context) {
	session, err := h.Service.Resume(context.Background(), c.Param("id"), c.GetHeader("X-User-ID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// GetSessionAnswers returns the graded answer rows for a session.
func (h *SessionHandler) GetSessionAnswers(c *gin.Context) {
	answers, err := h.Service.SessionAnswers(context.Background(), c.Param("id"), c.GetHeader("X-User-ID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"answers":    answers,
		"count":      len(answers),
		"session_id": c.Param("id"),
	})
}

// GetUserSessions lists a user's recent sessions, newest first.
func (h *SessionHandler) GetUserSessions(c *gin.Context) {
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	if err != nil {
		limit = 20
	}
	sessions, err := h.Service.UserSessions(context.Background(), c.Param("id"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"sessions": sessions,
		"count":    len(sessions),
	})
}
