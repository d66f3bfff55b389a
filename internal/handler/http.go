package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"zcatch-server/internal/core"
	"zcatch-server/internal/rank"
)

const (
	defaultTopLimit = 10
	maxTopLimit     = 100
)

// Cors 跨域
func Cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func HandleListRooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": core.ListRooms()})
}

type rankResponse struct {
	Name          string `json:"name"`
	Points        int    `json:"points"`
	Wins          int    `json:"wins"`
	Kills         int    `json:"kills"`
	KillsWallshot int    `json:"kills_wallshot"`
	Deaths        int    `json:"deaths"`
	Shots         int    `json:"shots"`
	TimePlayed    int64  `json:"time_played_ticks"`
}

func toRankResponse(name string, s rank.Cache) rankResponse {
	return rankResponse{
		Name:          name,
		Points:        s.Points,
		Wins:          s.Wins,
		Kills:         s.Kills,
		KillsWallshot: s.KillsWallshot,
		Deaths:        s.Deaths,
		Shots:         s.Shots,
		TimePlayed:    s.TimePlayed,
	}
}

// RankAPI serves statistics over HTTP through the shared gateway.
type RankAPI struct {
	Gateway       *rank.Gateway
	LockTimeoutMs int
}

// HandleTop GET /api/rank/top?limit=10
func (a *RankAPI) HandleTop(c *gin.Context) {
	limit := defaultTopLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = min(n, maxTopLimit)
	}

	var entries []rank.Entry
	err := a.Gateway.WithLock(a.LockTimeoutMs, func(s rank.Store) error {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()
		var err error
		entries, err = s.Top(ctx, limit)
		return err
	})
	if err != nil {
		a.fail(c, err)
		return
	}

	out := make([]rankResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toRankResponse(e.Name, e.Stats))
	}
	c.JSON(http.StatusOK, gin.H{"top": out})
}

// HandleLookup GET /api/rank/:name
func (a *RankAPI) HandleLookup(c *gin.Context) {
	name := c.Param("name")

	var stats rank.Cache
	err := a.Gateway.WithLock(a.LockTimeoutMs, func(s rank.Store) error {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()
		var err error
		stats, err = s.Read(ctx, name)
		return err
	})
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toRankResponse(name, stats))
}

func (a *RankAPI) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, rank.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "player not ranked"})
	case errors.Is(err, rank.ErrDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "ranking disabled"})
	case errors.Is(err, rank.ErrLockTimeout):
		c.Header("Retry-After", "1")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "ranking busy"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
