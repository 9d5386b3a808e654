package executors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	logger "github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"signalrouter/src/model"
	"signalrouter/src/tradeparams"
)

const (
	ordersPath          = "/orders"
	sinkRetryWaitTime   = 500 * time.Millisecond
	sinkRetryMaxBackoff = 5 * time.Second
)

// PlannedOrder is one order the collaborator should place.
type PlannedOrder struct {
	Target model.ExecutionTarget   `json:"target"`
	Params tradeparams.TradeParams `json:"params"`
}

// DispatchPlan groups the orders produced for one user by one signal.
type DispatchPlan struct {
	ID        string         `json:"id"`
	SignalID  uint           `json:"signal_id"`
	UserID    int64          `json:"user_id"`
	Strategy  string         `json:"strategy"`
	Symbol    string         `json:"symbol"`
	Side      model.Side     `json:"side"`
	Price     *float64       `json:"price,omitempty"`
	Orders    []PlannedOrder `json:"orders"`
	CreatedAt time.Time      `json:"created_at"`
}

// OrderSink hands plans to whatever places the orders. A sink may fail for
// some orders only; such failures are reported as *OrderError values
// combined with multierr.
type OrderSink interface {
	Submit(ctx context.Context, plan DispatchPlan) error
}

// OrderError ties a submission failure to its target.
type OrderError struct {
	Target model.ExecutionTarget
	Err    error
}

func (e *OrderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Target, e.Err)
}

func (e *OrderError) Unwrap() error {
	return e.Err
}

// FailedTargets maps every *OrderError inside err to its message. A non-nil
// err without any *OrderError is returned as the second value.
func FailedTargets(err error) (map[model.ExecutionTarget]string, error) {
	failed := map[model.ExecutionTarget]string{}
	var rest error
	for _, e := range multierr.Errors(err) {
		var oe *OrderError
		if errors.As(e, &oe) {
			failed[oe.Target] = oe.Err.Error()
			continue
		}
		rest = multierr.Append(rest, e)
	}
	return failed, rest
}

// LogSink only logs plans. It is used when no order endpoint is configured.
type LogSink struct {
	log *logger.Entry
}

func NewLogSink(log *logger.Entry) *LogSink {
	if log == nil {
		log = logger.NewEntry(logger.StandardLogger())
	}
	return &LogSink{log: log.WithField("component", "LogSink")}
}

func (s *LogSink) Submit(_ context.Context, plan DispatchPlan) error {
	for _, o := range plan.Orders {
		s.log.WithFields(map[string]interface{}{
			"dispatchID": plan.ID,
			"signalID":   plan.SignalID,
			"userID":     plan.UserID,
			"strategy":   plan.Strategy,
			"symbol":     plan.Symbol,
			"side":       plan.Side,
			"target":     o.Target.String(),
			"percent":    o.Params.Percent.String(),
			"slPercent":  o.Params.SLPercent.String(),
			"tpPercent":  o.Params.TPPercent.String(),
			"leverage":   o.Params.Leverage,
		}).Info("Order planned")
	}
	return nil
}

// orderRequest is the body posted for one order.
type orderRequest struct {
	DispatchID string                  `json:"dispatch_id"`
	SignalID   uint                    `json:"signal_id"`
	UserID     int64                   `json:"user_id"`
	Env        model.Environment       `json:"env"`
	Price      *float64                `json:"price,omitempty"`
	Params     tradeparams.TradeParams `json:"params"`
}

// HTTPOrderSink posts every planned order to the order service.
type HTTPOrderSink struct {
	http *resty.Client
	log  *logger.Entry
}

func isRetryableResp(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if r == nil {
		return false
	}
	code := r.StatusCode()
	return code >= 500 || code == http.StatusTooManyRequests || code == http.StatusRequestTimeout
}

func NewHTTPOrderSink(baseURL string, timeout time.Duration, retries int, log *logger.Entry) *HTTPOrderSink {
	if log == nil {
		log = logger.NewEntry(logger.StandardLogger())
	}
	if retries < 0 {
		retries = 0
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(retries).
		SetRetryWaitTime(sinkRetryWaitTime).
		SetRetryMaxWaitTime(sinkRetryMaxBackoff).
		AddRetryCondition(isRetryableResp)

	return &HTTPOrderSink{http: client, log: log.WithField("component", "HTTPOrderSink")}
}

// Submit posts each order independently so one rejected target does not
// hide the others.
func (s *HTTPOrderSink) Submit(ctx context.Context, plan DispatchPlan) error {
	var errs error
	for _, o := range plan.Orders {
		body := orderRequest{
			DispatchID: plan.ID,
			SignalID:   plan.SignalID,
			UserID:     plan.UserID,
			Env:        o.Target.Env,
			Price:      plan.Price,
			Params:     o.Params,
		}

		resp, err := s.http.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetHeader("X-Dispatch-ID", plan.ID).
			SetBody(body).
			Post(ordersPath)
		if err == nil && resp.IsError() {
			err = fmt.Errorf("order service returned %d: %s", resp.StatusCode(), resp.String())
		}
		if err != nil {
			s.log.WithFields(map[string]interface{}{
				"dispatchID": plan.ID,
				"userID":     plan.UserID,
				"target":     o.Target.String(),
			}).WithError(err).Warn("Order submission failed")
			errs = multierr.Append(errs, &OrderError{Target: o.Target, Err: err})
		}
	}
	return errs
}
