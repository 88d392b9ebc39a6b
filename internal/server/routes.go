package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/holdfast-dev/holdfast/internal/store"
)

// registerRoutes sets up all sync routes on the Gin router.
func registerRoutes(router *gin.Engine, st *store.Store) {
	router.GET("/api/sessions", handleSessionIndex(st))
	router.GET("/api/sessions/:id", handleSession(st))
	router.GET("/api/sessions/:id/messages", handleMessages(st))
	router.GET("/api/sessions/:id/diff", handleSessionDiff(st))
	router.GET("/api/events", handleSSE(st))
}

// handleSessionIndex serves the denormalized session listing. Query
// params mirror store.SessionQuery.
func handleSessionIndex(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
		updatedAfter, _ := strconv.ParseInt(c.DefaultQuery("updated_after", "0"), 10, 64)
		q := store.SessionQuery{
			ProjectID:       c.Query("project"),
			UpdatedAfter:    updatedAfter,
			Title:           c.Query("title"),
			Directory:       c.Query("directory"),
			IncludeArchived: c.Query("archived") == "true",
			AfterID:         c.Query("after"),
			Limit:           limit,
		}
		rows, err := st.ListSessionIndex(q)
		if errors.Is(err, store.ErrStaleCursor) {
			c.JSON(http.StatusGone, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, rows)
	}
}

func handleSession(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := st.ReadSession(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, sess)
	}
}

// handleMessages serves one descending page of messages with parts,
// the full-load sync payload.
func handleMessages(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
		q := store.MessageQuery{
			SessionID:    c.Param("id"),
			BeforeID:     c.Query("before"),
			Limit:        limit,
			IncludeTypes: c.QueryArray("type"),
			ExcludeTypes: c.QueryArray("exclude_type"),
		}
		msgs, err := st.ListMessagesWithPartsPage(q)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, msgs)
	}
}

func handleSessionDiff(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		diff, err := st.ReadSessionDiff(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"diff": diff})
	}
}
