package obs

import (
	"context"
	"time"

	"mailcenter-service/internal/platform/logger"
)

type ctxKey string

const RequestIDKey ctxKey = "req_id"

// Time logs the duration of an operation when the returned func runs,
// carrying the request id from the context and the final error if any.
//
//	defer obs.Time(ctx, log, "list fees")(&err)
func Time(ctx context.Context, log *logger.Logger, name string) func(errp *error) {
	start := time.Now()

	reqID, _ := ctx.Value(RequestIDKey).(string)

	return func(errp *error) {
		dur := time.Since(start)

		if errp != nil && *errp != nil {
			log.Error("operation failed",
				"req_id", reqID, "op", name, "dur_ms", dur.Milliseconds(), "err", *errp)
			return
		}
		log.Debug("operation complete",
			"req_id", reqID, "op", name, "dur_ms", dur.Milliseconds())
	}
}
