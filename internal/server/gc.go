package server

import (
	"context"
	"log"
	"time"

	"github.com/holdfast-dev/holdfast/internal/snapshot"
	"github.com/robfig/cron/v3"
)

// gcParser uses standard 5-field cron expressions (minute, hour, dom,
// month, dow).
var gcParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// runGCSchedule repacks the shadow repository on a cron schedule while
// the server runs. The snapshot store's own interval throttle still
// applies, so an aggressive schedule cannot thrash the repository.
func runGCSchedule(ctx context.Context, snaps *snapshot.Store, expr string) {
	sched, err := gcParser.Parse(expr)
	if err != nil {
		log.Printf("server: gc schedule %q: %v", expr, err)
		return
	}
	for {
		next := sched.Next(time.Now())
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Until(next)):
			snaps.GC()
		}
	}
}
