package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"

	"signalrouter/src/accounts"
	"signalrouter/src/model"
	"signalrouter/src/settings"
)

type positionStore interface {
	OpenPosition(ctx context.Context, p *model.Position) error
	ClosePosition(ctx context.Context, userID int64, id uint, exitPrice float64) error
	FindOpen(ctx context.Context, userID int64, env model.Environment) ([]model.Position, error)
	CountOpenByEnv(ctx context.Context, userID int64) (map[model.Environment]int64, error)
}

// PositionsResponse lists open positions with per environment totals.
type PositionsResponse struct {
	Counts    map[model.Environment]int64 `json:"counts"`
	Positions []model.Position            `json:"positions"`
}

// OpenPositionRequest records a position. Either account_type or env is
// required; env alone picks the exchange's paper or live account.
type OpenPositionRequest struct {
	Exchange    string  `json:"exchange"`
	AccountType string  `json:"account_type"`
	Env         string  `json:"env"`
	Strategy    string  `json:"strategy"`
	Symbol      string  `json:"symbol"`
	Side        string  `json:"side"`
	Quantity    float64 `json:"quantity"`
	EntryPrice  float64 `json:"entry_price"`
}

type closePositionRequest struct {
	ExitPrice float64 `json:"exit_price"`
}

// GetOpenPositionsHandler returns a user's open positions. Optional query:
// env (paper or live).
func GetOpenPositionsHandler(repo positionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userIDParam(w, r)
		if !ok {
			return
		}

		env, err := parseEnv(r.URL.Query().Get("env"))
		if err != nil {
			writeError(w, err)
			return
		}

		positions, err := repo.FindOpen(r.Context(), userID, env)
		if err != nil {
			writeError(w, err)
			return
		}
		counts, err := repo.CountOpenByEnv(r.Context(), userID)
		if err != nil {
			writeError(w, err)
			return
		}
		if positions == nil {
			positions = []model.Position{}
		}

		writeJSON(w, http.StatusOK, PositionsResponse{Counts: counts, Positions: positions})
	}
}

// OpenPositionHandler stores a new open position and returns it with its env stamped.
func OpenPositionHandler(repo positionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userIDParam(w, r)
		if !ok {
			return
		}

		var req OpenPositionRequest
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&req); err != nil {
			logger.WithError(err).Warn("invalid position payload")
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid payload"})
			return
		}

		p, err := req.position(userID)
		if err != nil {
			writeError(w, err)
			return
		}
		if err := repo.OpenPosition(r.Context(), p); err != nil {
			writeError(w, err)
			return
		}

		logger.WithFields(map[string]interface{}{
			"userID":   userID,
			"exchange": p.Exchange,
			"env":      p.Env,
			"symbol":   p.Symbol,
		}).Info("Position opened")

		writeJSON(w, http.StatusCreated, p)
	}
}

// ClosePositionHandler closes one of the user's open positions.
func ClosePositionHandler(repo positionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userIDParam(w, r)
		if !ok {
			return
		}
		id, err := strconv.ParseUint(chi.URLParam(r, "positionID"), 10, 64)
		if err != nil || id == 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid positionID"})
			return
		}

		var req closePositionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid payload"})
			return
		}
		if req.ExitPrice <= 0 {
			writeError(w, fmt.Errorf("%w: exit_price must be positive", settings.ErrInvalidValue))
			return
		}

		if err := repo.ClosePosition(r.Context(), userID, uint(id), req.ExitPrice); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (req OpenPositionRequest) position(userID int64) (*model.Position, error) {
	exchange, ok := accounts.ParseExchange(req.Exchange)
	if !ok {
		return nil, fmt.Errorf("%w: exchange %q", settings.ErrInvalidEnum, req.Exchange)
	}

	var accountType model.AccountType
	switch {
	case strings.TrimSpace(req.AccountType) != "":
		if accountType, ok = accounts.ParseAccountType(req.AccountType); !ok {
			return nil, fmt.Errorf("%w: account type %q", settings.ErrInvalidEnum, req.AccountType)
		}
	case strings.TrimSpace(req.Env) != "":
		env, err := parseEnv(req.Env)
		if err != nil {
			return nil, err
		}
		accountType = accounts.ForEnv(exchange, env)
	default:
		return nil, fmt.Errorf("%w: account_type or env is required", settings.ErrInvalidValue)
	}

	side, err := settings.ParseSide(req.Side)
	if err != nil {
		return nil, err
	}
	if side == model.SideAll {
		return nil, fmt.Errorf("%w: side %q", settings.ErrInvalidEnum, req.Side)
	}

	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", settings.ErrInvalidValue)
	}
	if req.Quantity <= 0 || req.EntryPrice <= 0 {
		return nil, fmt.Errorf("%w: quantity and entry_price must be positive", settings.ErrInvalidValue)
	}

	return &model.Position{
		UserID:      userID,
		Exchange:    exchange,
		AccountType: accountType,
		Strategy:    strings.ToLower(strings.TrimSpace(req.Strategy)),
		Symbol:      symbol,
		Side:        side,
		Quantity:    req.Quantity,
		EntryPrice:  req.EntryPrice,
	}, nil
}

// parseEnv accepts paper, live or empty.
func parseEnv(s string) (model.Environment, error) {
	env := model.Environment(strings.ToLower(strings.TrimSpace(s)))
	switch env {
	case "", model.EnvPaper, model.EnvLive:
		return env, nil
	}
	return "", fmt.Errorf("%w: env %q", settings.ErrInvalidEnum, s)
}
