package std

import (
	"context"
	"time"

	"github.com/ZhuLinsen/MiniAgent/pkg/tools"
)

// NewCurrentTime - get_current_time: текущее локальное время в нескольких форматах.
func NewCurrentTime(now func() time.Time) (tools.Tool, error) {
	if now == nil {
		now = time.Now
	}
	return tools.NewDynamic("get_current_time",
		"Get current time information: ISO timestamp, date parts and weekday.",
		nil,
		func(ctx context.Context, _ tools.Args) (any, error) {
			t := now()
			return map[string]any{
				"iso":       t.Format(time.RFC3339),
				"year":      t.Year(),
				"month":     int(t.Month()),
				"day":       t.Day(),
				"hour":      t.Hour(),
				"minute":    t.Minute(),
				"second":    t.Second(),
				"weekday":   t.Weekday().String(),
				"formatted": t.Format("2006-01-02 15:04:05"),
			}, nil
		})
}
