package metrics

// Metric emission for auth operations. Kept separate from the service
// so the tag vocabulary lives in one place.

import (
	"strings"
	"time"

	autherrors "github.com/target/webui-auth/internal/errors"
	"github.com/target/webui-auth/internal/observability/statsd"
)

// Result values for the result tag.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// AuthOp describes one finished auth operation.
type AuthOp struct {
	Operation string
	Duration  time.Duration
	Err       error
}

// EmitAuthOp emits a counter and a timing for one auth operation. The
// error code becomes an error_code tag so dashboards can split invalid
// credentials from network failures.
func EmitAuthOp(sink statsd.Sink, op AuthOp) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"operation": strings.ReplaceAll(op.Operation, " ", "_"),
		"result":    ResultSuccess,
	}
	if op.Err != nil {
		tags["result"] = ResultError
		if code := autherrors.GetCode(op.Err); code != "" {
			tags["error_code"] = string(code)
		}
	}

	sink.Count("auth.operation", 1, tags)
	if op.Duration > 0 {
		sink.Timing("auth.duration", op.Duration, tags)
	}
}
