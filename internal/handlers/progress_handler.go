package handlers

import (
	"context"
	"net/http"
	"strconv"

	"practice-service/internal/service"

	"github.com/gin-gonic/gin"
)

type ProgressHandler struct {
	Service *service.ProgressService
}

func NewProgressHandler(s *service.ProgressService) *ProgressHandler {
	return &ProgressHandler{Service: s}
}

// GetDailyProgress returns the last N days of practice aggregates, oldest
// first and zero-filled for inactive days.
func (h *ProgressHandler) GetDailyProgress(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "7"))
	if err != nil {
		days = 7
	}
	series, err := h.Service.DailyProgress(context.Background(), c.Param("id"), days)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"days":    series,
		"count":   len(series),
		"user_id": c.Param("id"),
	})
}

// GetStreak returns the user's current and longest streaks plus today's
// aggregate.
func (h *ProgressHandler) GetStreak(c *gin.Context) {
	info, err := h.Service.StreakSummary(context.Background(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// GetRank returns the user's 1-based leaderboard position by points.
func (h *ProgressHandler) GetRank(c *gin.Context) {
	rank, err := h.Service.Rank(context.Background(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id": c.Param("id"),
		"rank":    rank,
	})
}

// GetLeaderboard returns the top users by points.
func (h *ProgressHandler) GetLeaderboard(c *gin.Context) {
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "10"), 10, 64)
	if err != nil {
		limit = 10
	}
	entries, err := h.Service.Top(context.Background(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"leaderboard": entries,
		"count":       len(entries),
	})
}
