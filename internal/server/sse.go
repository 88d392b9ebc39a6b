package server

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/holdfast-dev/holdfast/internal/store"
)

// handleSSE streams live message updates for one session: every poll
// tick, messages with ids beyond the last-seen id are emitted as
// message events. Ids being monotonic makes the high-water mark a
// plain string comparison.
func handleSSE(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Query("session")

		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")

		writeSSE(c.Writer, "connected", map[string]string{"session": sessionID})
		c.Writer.Flush()

		if sessionID == "" {
			return
		}

		// Start past everything already stored; clients load history
		// through the paged endpoint.
		lastSeen := ""
		if page, err := st.ListMessagesPage(store.MessageQuery{SessionID: sessionID, Limit: 1}); err == nil && len(page) > 0 {
			lastSeen = page[0].ID
		}

		ctx := c.Request.Context()
		ticker := time.NewTicker(time.Second)
		heartbeat := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		defer heartbeat.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-heartbeat.C:
				writeSSE(c.Writer, "heartbeat", map[string]string{
					"timestamp": time.Now().UTC().Format(time.RFC3339),
				})
				c.Writer.Flush()
			case <-ticker.C:
				page, err := st.ListMessagesWithPartsPage(store.MessageQuery{
					SessionID: sessionID,
					AfterID:   lastSeen,
				})
				if err != nil {
					continue
				}
				if lastSeen == "" {
					// Nothing was stored at connect time, so the tail
					// cursor is unset and the page came back newest-first.
					for i, j := 0, len(page)-1; i < j; i, j = i+1, j-1 {
						page[i], page[j] = page[j], page[i]
					}
				}
				for _, msg := range page {
					if msg.Info.ID <= lastSeen {
						continue
					}
					writeSSE(c.Writer, "message", msg)
					lastSeen = msg.Info.ID
				}
				c.Writer.Flush()
			}
		}
	}
}

// writeSSE writes a single SSE event to the writer.
func writeSSE(w io.Writer, event string, data any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, string(jsonData))
}
