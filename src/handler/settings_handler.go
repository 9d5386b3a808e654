package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"signalrouter/src/accounts"
	"signalrouter/src/model"
	"signalrouter/src/routing"
	"signalrouter/src/settings"
	"signalrouter/src/tradeparams"
)

type settingsResolver interface {
	User(ctx context.Context, userID int64) (*model.User, error)
	Resolve(ctx context.Context, userID int64, strategy string, exchange model.Exchange, accountType model.AccountType) (*settings.Effective, error)
}

type settingsStore interface {
	GetSetting(ctx context.Context, userID int64, strategy string, field settings.Field, exchange model.Exchange, side model.Side) (any, error)
	SetSetting(ctx context.Context, userID int64, strategy string, field settings.Field, value any, exchange model.Exchange, side model.Side) error
	SetUserField(ctx context.Context, userID int64, field settings.UserField, value any) error
}

type targetRouter interface {
	GetExecutionTargets(ctx context.Context, userID int64, strategy string, override *model.RoutingPolicy) ([]model.ExecutionTarget, error)
}

type paramBuilder interface {
	GetTradeParams(
		user *model.User,
		eff *settings.Effective,
		symbol string,
		strategy string,
		side string,
		exchange model.Exchange,
		accountType model.AccountType,
	) tradeparams.TradeParams
}

// EffectiveResponse is the merged view of one strategy on one exchange.
type EffectiveResponse struct {
	UserID      int64             `json:"user_id"`
	Strategy    string            `json:"strategy"`
	Known       bool              `json:"known"`
	Exchange    model.Exchange    `json:"exchange"`
	AccountType model.AccountType `json:"account_type,omitempty"`
	General     settings.Values   `json:"general"`
	Long        settings.Values   `json:"long"`
	Short       settings.Values   `json:"short"`
}

type valuePayload struct {
	Value any `json:"value"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// GetSettingsHandler returns the effective settings of a strategy.
// Optional query: exchange, account_type.
func GetSettingsHandler(resolver settingsResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userIDParam(w, r)
		if !ok {
			return
		}
		exchange, accountType, err := venueQuery(r.URL.Query())
		if err != nil {
			writeError(w, err)
			return
		}

		eff, err := resolver.Resolve(r.Context(), userID, strategyParam(r), exchange, accountType)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, EffectiveResponse{
			UserID:      eff.UserID,
			Strategy:    eff.Strategy,
			Known:       eff.Known,
			Exchange:    eff.Exchange,
			AccountType: eff.AccountType,
			General:     eff.General,
			Long:        eff.Long,
			Short:       eff.Short,
		})
	}
}

// GetSettingHandler returns the stored value of one field, null when inherited.
func GetSettingHandler(store settingsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userIDParam(w, r)
		if !ok {
			return
		}
		field, ok := fieldParam(w, r)
		if !ok {
			return
		}
		q := r.URL.Query()
		exchange, _, err := venueQuery(q)
		if err != nil {
			writeError(w, err)
			return
		}

		v, err := store.GetSetting(r.Context(), userID, strategyParam(r), field, exchange, model.Side(q.Get("side")))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, valuePayload{Value: v})
	}
}

// PutSettingHandler stores one field. A null value clears it.
func PutSettingHandler(store settingsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userIDParam(w, r)
		if !ok {
			return
		}
		field, ok := fieldParam(w, r)
		if !ok {
			return
		}
		payload, ok := decodeValue(w, r)
		if !ok {
			return
		}
		q := r.URL.Query()
		exchange, _, err := venueQuery(q)
		if err != nil {
			writeError(w, err)
			return
		}

		err = store.SetSetting(r.Context(), userID, strategyParam(r), field, payload.Value, exchange, model.Side(q.Get("side")))
		if err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// PutUserFieldHandler updates one user level field.
func PutUserFieldHandler(store settingsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userIDParam(w, r)
		if !ok {
			return
		}
		payload, ok := decodeValue(w, r)
		if !ok {
			return
		}

		field := settings.UserField(strings.ToLower(chi.URLParam(r, "field")))
		if err := store.SetUserField(r.Context(), userID, field, payload.Value); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// GetTargetsHandler lists where a signal of the strategy would be executed.
// Optional query: policy overrides the stored routing policy.
func GetTargetsHandler(router targetRouter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userIDParam(w, r)
		if !ok {
			return
		}

		var override *model.RoutingPolicy
		if p := r.URL.Query().Get("policy"); p != "" {
			policy := model.RoutingPolicy(strings.ToLower(p))
			override = &policy
		}

		targets, err := router.GetExecutionTargets(r.Context(), userID, strategyParam(r), override)
		if err != nil {
			writeError(w, err)
			return
		}
		if targets == nil {
			targets = []model.ExecutionTarget{}
		}
		writeJSON(w, http.StatusOK, targets)
	}
}

// GetParamsHandler previews the trade parameters for a symbol.
// Required query: symbol. Optional: side, exchange, account_type.
func GetParamsHandler(resolver settingsResolver, builder paramBuilder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userIDParam(w, r)
		if !ok {
			return
		}
		q := r.URL.Query()
		symbol := strings.ToUpper(strings.TrimSpace(q.Get("symbol")))
		if symbol == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "symbol is required"})
			return
		}
		side := q.Get("side")
		if _, err := settings.ParseSide(side); err != nil {
			writeError(w, err)
			return
		}
		exchange, accountType, err := venueQuery(q)
		if err != nil {
			writeError(w, err)
			return
		}
		strategy := strategyParam(r)

		user, err := resolver.User(r.Context(), userID)
		if err != nil {
			writeError(w, err)
			return
		}
		eff, err := resolver.Resolve(r.Context(), userID, strategy, exchange, accountType)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, builder.GetTradeParams(user, eff, symbol, strategy, side, eff.Exchange, eff.AccountType))
	}
}

func userIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid userID"})
		return 0, false
	}
	return id, true
}

func strategyParam(r *http.Request) string {
	return strings.ToLower(strings.TrimSpace(chi.URLParam(r, "strategy")))
}

// venueQuery reads the optional exchange and account_type parameters.
// Empty values are passed through and mean "the user's active one".
func venueQuery(q url.Values) (model.Exchange, model.AccountType, error) {
	var (
		exchange    model.Exchange
		accountType model.AccountType
		ok          bool
	)
	if raw := q.Get("exchange"); raw != "" {
		if exchange, ok = accounts.ParseExchange(raw); !ok {
			return "", "", fmt.Errorf("%w: exchange %q", settings.ErrInvalidEnum, raw)
		}
	}
	if raw := q.Get("account_type"); raw != "" {
		if accountType, ok = accounts.ParseAccountType(raw); !ok {
			return "", "", fmt.Errorf("%w: account type %q", settings.ErrInvalidEnum, raw)
		}
	}
	return exchange, accountType, nil
}

func fieldParam(w http.ResponseWriter, r *http.Request) (settings.Field, bool) {
	name := chi.URLParam(r, "field")
	field, ok := settings.ParseField(name)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unsupported setting field " + strconv.Quote(name)})
		return "", false
	}
	return field, true
}

func decodeValue(w http.ResponseWriter, r *http.Request) (valuePayload, bool) {
	var payload valuePayload
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&payload); err != nil {
		logger.WithError(err).Warn("invalid setting payload")
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid payload"})
		return payload, false
	}
	return payload, true
}

// statusFor maps domain errors to HTTP statuses. Anything unknown is a 500.
func statusFor(err error) int {
	var ve *settings.ValidationError
	switch {
	case errors.As(err, &ve), errors.Is(err, settings.ErrInvalidValue):
		return http.StatusUnprocessableEntity
	case errors.Is(err, settings.ErrUnknownStrategy), errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, settings.ErrUnsupportedField),
		errors.Is(err, settings.ErrInvalidEnum),
		errors.Is(err, routing.ErrInvalidPolicy):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.WithError(err).Error("settings API request failed")
		writeJSON(w, status, errorResponse{Error: "Internal Server Error"})
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.WithError(err).Error("failed to encode response")
	}
}
