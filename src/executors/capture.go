package executors

import (
	"context"
	"encoding/json"
	"runtime/debug"
	"time"

	logger "github.com/sirupsen/logrus"

	"signalrouter/src/model"
)

// ExceptionRecorder persists captured failures.
type ExceptionRecorder interface {
	Create(ctx context.Context, exc *model.Exception) error
}

// Failure describes where an error happened on the dispatch path.
type Failure struct {
	Module   string
	Method   string
	Level    string
	UserID   *int64
	Strategy string
	Context  map[string]interface{}
}

// Capture records a dispatch exception, logs it locally, and persists it
// when a recorder is given.
func Capture(ctx context.Context, repo ExceptionRecorder, log *logger.Entry, f Failure, err error) {
	if err == nil {
		return
	}
	if log == nil {
		log = logger.NewEntry(logger.StandardLogger())
	}
	if f.Level == "" {
		f.Level = "error"
	}

	var ctxJSON string
	if f.Context != nil {
		if b, e := json.Marshal(f.Context); e == nil {
			ctxJSON = string(b)
		}
	}

	exc := &model.Exception{
		Service:   "dispatcher",
		Module:    f.Module,
		Method:    f.Method,
		UserID:    f.UserID,
		Strategy:  f.Strategy,
		Message:   err.Error(),
		Stack:     string(debug.Stack()),
		Level:     f.Level,
		Context:   ctxJSON,
		CreatedAt: time.Now(),
	}

	fields := map[string]interface{}{
		"module":   f.Module,
		"method":   f.Method,
		"level":    f.Level,
		"strategy": f.Strategy,
	}
	if f.UserID != nil {
		fields["userID"] = *f.UserID
	}
	log.WithFields(fields).WithError(err).Error("Dispatch exception captured")

	if repo != nil {
		if e := repo.Create(ctx, exc); e != nil {
			log.WithError(e).Error("Failed to persist exception")
		}
	}
}
