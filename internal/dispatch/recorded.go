package dispatch

import (
	"context"
	"time"

	"template_purifier/internal/logger"
	"template_purifier/internal/models"
	"template_purifier/internal/purifier"
	"template_purifier/internal/repository"

	"github.com/google/uuid"
)

// Recorded forwards calls to another dispatcher, typically the remote hub
// client, and records each one in the service-call log. afterCall runs after
// every accepted call.
type Recorded struct {
	next      purifier.Dispatcher
	calls     repository.CallRepo
	log       *logger.Logger
	afterCall func()
}

func NewRecorded(next purifier.Dispatcher, calls repository.CallRepo, log *logger.Logger, afterCall func()) *Recorded {
	if log == nil {
		log = logger.Nop()
	}
	return &Recorded{next: next, calls: calls, log: log, afterCall: afterCall}
}

// Call implements purifier.Dispatcher. A non-blocking call is recorded as
// succeeded once the inner dispatcher accepted it.
func (r *Recorded) Call(ctx context.Context, ref purifier.ServiceRef, data map[string]any, blocking bool) error {
	err := r.next.Call(ctx, ref, data, blocking)
	recordCall(ctx, r.calls, r.log, ref, data, blocking, err)
	if err != nil {
		return err
	}
	if r.afterCall != nil {
		r.afterCall()
	}
	return nil
}

func recordCall(ctx context.Context, calls repository.CallRepo, log *logger.Logger, ref purifier.ServiceRef, data map[string]any, blocking bool, callErr error) {
	c := models.ServiceCall{
		CallID:   uuid.NewString(),
		CalledAt: time.Now().UTC(),
		Domain:   ref.Domain,
		Action:   ref.Action,
		Data:     data,
		Blocking: blocking,
		Status:   models.CallSucceeded,
	}
	if callErr != nil {
		c.Status = models.CallFailed
		c.Error = callErr.Error()
		log.Warnw("service_call_failed", "service", ref.String(), "blocking", blocking, "err", callErr)
	} else {
		log.Debugw("service_call", "service", ref.String(), "blocking", blocking)
	}
	if calls == nil {
		return
	}
	if err := calls.Append(ctx, c); err != nil {
		log.Errorw("service_call_log_failed", "service", ref.String(), "err", err)
	}
}
