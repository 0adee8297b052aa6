package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/regen-hub/regenmon-hub/internal/application/command"
	"github.com/regen-hub/regenmon-hub/internal/application/query"
	"github.com/regen-hub/regenmon-hub/internal/application/saga"
	"github.com/regen-hub/regenmon-hub/pkg/timeutil"
)

// maxBodyBytes caps request bodies. Training prompts are the largest
// legitimate payload and stay far below this.
const maxBodyBytes = 64 << 10 // 64 KB

// decodeJSON reads a JSON body into dst.
func decodeJSON(r *http.Request, dst interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSONError(w, http.StatusNotFound, "not_found", "unknown endpoint")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":    "Regenmon Hub API",
		"version": "v1",
		"endpoints": map[string]string{
			"health":      "/health",
			"creatures":   "/api/v1/creatures",
			"leaderboard": "/api/v1/leaderboard",
		},
	})
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Healthy {
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		writeJSON(w, http.StatusOK, status)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"uptime": s.Uptime().String(),
	})
}

// handleReady handles the readiness probe endpoint.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": status.Message,
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe endpoint.
func (s *Server) handleLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// CREATURE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRegister handles POST /api/v1/creatures.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OwnerID string `json:"owner_id"`
		Name    string `json:"name"`
		AppURL  string `json:"app_url"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	result, err := s.deps.Registration.Execute(r.Context(), saga.RegistrationInput{
		OwnerID:       req.OwnerID,
		Name:          req.Name,
		AppURL:        req.AppURL,
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"creature_id":   result.Creature.ID,
		"name":          result.Creature.Name,
		"app_url":       result.Creature.AppURL,
		"stage":         result.Creature.Stage.Int(),
		"initial_rank":  result.InitialRank,
		"registered_at": result.RegisteredAt,
	})
}

// handleGetCreature handles GET /api/v1/creatures/{id}.
func (s *Server) handleGetCreature(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.GetCreature.Handle(r.Context(), query.GetCreatureQuery{
		CreatureID: r.PathValue("id"),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleGetCreatureByOwner handles GET /api/v1/owners/{owner_id}/creature.
func (s *Server) handleGetCreatureByOwner(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.GetCreature.Handle(r.Context(), query.GetCreatureQuery{
		OwnerID: r.PathValue("owner_id"),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleSync handles POST /api/v1/creatures/{id}/sync.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClientPoints int `json:"client_points"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	result, err := s.deps.SyncCreature.Handle(r.Context(), command.SyncCreatureCommand{
		CreatureID:    r.PathValue("id"),
		ClientPoints:  req.ClientPoints,
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleFeed handles POST /api/v1/creatures/{id}/feed.
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FeederID string `json:"feeder_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	result, err := s.deps.FeedCreature.Handle(r.Context(), command.FeedCreatureCommand{
		CreatureID:    r.PathValue("id"),
		FeederID:      req.FeederID,
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleTrain handles POST /api/v1/creatures/{id}/train.
func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	result, err := s.deps.TrainCreature.Handle(r.Context(), command.TrainCreatureCommand{
		CreatureID:    r.PathValue("id"),
		Prompt:        req.Prompt,
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleChat handles POST /api/v1/creatures/{id}/chat.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	result, err := s.deps.ChatCreature.Handle(r.Context(), command.ChatWithCreatureCommand{
		CreatureID:    r.PathValue("id"),
		Prompt:        req.Prompt,
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleRevive handles POST /api/v1/creatures/{id}/revive.
func (s *Server) handleRevive(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.ReviveCreature.Handle(r.Context(), command.ReviveCreatureCommand{
		CreatureID:    r.PathValue("id"),
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// SOCIAL HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGift handles POST /api/v1/creatures/{id}/gift. The path creature is
// the sender.
func (s *Server) handleGift(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ToCreatureID string `json:"to_creature_id"`
		Amount       int64  `json:"amount"`
		Note         string `json:"note"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	result, err := s.deps.GiftTokens.Handle(r.Context(), command.GiftTokensCommand{
		FromCreatureID: r.PathValue("id"),
		ToCreatureID:   req.ToCreatureID,
		Amount:         req.Amount,
		Note:           req.Note,
		CorrelationID:  getRequestID(r.Context()),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleSendMessage handles POST /api/v1/creatures/{id}/messages. The path
// creature is the sender.
func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ToCreatureID string `json:"to_creature_id"`
		Body         string `json:"body"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	result, err := s.deps.SendMessage.Handle(r.Context(), command.SendMessageCommand{
		FromCreatureID: r.PathValue("id"),
		ToCreatureID:   req.ToCreatureID,
		Body:           req.Body,
		CorrelationID:  getRequestID(r.Context()),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// handleVisit handles POST /api/v1/creatures/{id}/visits. The path creature
// is the visitor.
func (s *Server) handleVisit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		HostID string `json:"host_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	result, err := s.deps.VisitCreature.Handle(r.Context(), command.VisitCreatureCommand{
		VisitorID:     r.PathValue("id"),
		HostID:        req.HostID,
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleGetActivity handles GET /api/v1/creatures/{id}/activity.
func (s *Server) handleGetActivity(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.GetActivity.Handle(r.Context(), query.GetActivityQuery{
		CreatureID: r.PathValue("id"),
		Offset:     getQueryParamInt(r, "offset", 0),
		Limit:      getQueryParamInt(r, "limit", 20),
		UnreadOnly: getQueryParamBool(r, "unread_only"),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleGetMessages handles GET /api/v1/creatures/{id}/messages.
// Serves the inbox slice of the activity view.
func (s *Server) handleGetMessages(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.GetActivity.Handle(r.Context(), query.GetActivityQuery{
		CreatureID: r.PathValue("id"),
		Offset:     getQueryParamInt(r, "offset", 0),
		Limit:      getQueryParamInt(r, "limit", 20),
		UnreadOnly: getQueryParamBool(r, "unread_only"),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"messages":     result.Inbox,
		"unread_count": result.UnreadCount,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS & ECONOMY HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetRank handles GET /api/v1/creatures/{id}/rank.
func (s *Server) handleGetRank(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.GetCreatureRank.Handle(r.Context(), query.GetCreatureRankQuery{
		CreatureID: r.PathValue("id"),
		RangeSize:  getQueryParamInt(r, "range", 0),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleGetTransactions handles GET /api/v1/creatures/{id}/transactions.
func (s *Server) handleGetTransactions(w http.ResponseWriter, r *http.Request) {
	q := query.GetTransactionsQuery{
		CreatureID: r.PathValue("id"),
		Type:       getQueryParam(r, "type", ""),
		Offset:     getQueryParamInt(r, "offset", 0),
		Limit:      getQueryParamInt(r, "limit", 0),
	}
	if v := r.URL.Query().Get("from"); v != "" {
		from, err := timeutil.ParseDate(v)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "validation_error", "from must be YYYY-MM-DD")
			return
		}
		q.From = from
	}
	if v := r.URL.Query().Get("to"); v != "" {
		to, err := timeutil.ParseDate(v)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "validation_error", "to must be YYYY-MM-DD")
			return
		}
		q.To = timeutil.EndOfDay(to)
	}

	result, err := s.deps.GetTransactions.Handle(r.Context(), q)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleGetProgress handles GET /api/v1/creatures/{id}/progress.
func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.GetDailyProgress.Handle(r.Context(), query.GetDailyProgressQuery{
		CreatureID:   r.PathValue("id"),
		Days:         getQueryParamInt(r, "days", 0),
		SessionLimit: getQueryParamInt(r, "sessions", 0),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleGetLeaderboard handles GET /api/v1/leaderboard.
func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.GetLeaderboard.Handle(r.Context(), query.GetLeaderboardQuery{
		Page:             getQueryParamInt(r, "page", 0),
		PageSize:         getQueryParamInt(r, "page_size", 0),
		AroundCreatureID: getQueryParam(r, "around", ""),
		RangeSize:        getQueryParamInt(r, "range", 0),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleHubStats handles GET /api/v1/stats.
// Public hub-wide totals. History stays behind the admin endpoint.
func (s *Server) handleHubStats(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.GetHubStats.Handle(r.Context(), query.GetHubStatsQuery{})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetNotifications handles GET /api/v1/owners/{owner_id}/notifications.
func (s *Server) handleGetNotifications(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.GetNotifications.Handle(r.Context(), query.GetNotificationsQuery{
		OwnerID:    r.PathValue("owner_id"),
		UnreadOnly: getQueryParamBool(r, "unread_only"),
		Limit:      getQueryParamInt(r, "limit", 0),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleMarkNotificationsRead handles
// POST /api/v1/owners/{owner_id}/notifications/read.
func (s *Server) handleMarkNotificationsRead(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NotificationID string `json:"notification_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	result, err := s.deps.MarkNotificationsRead.Handle(r.Context(), command.MarkNotificationsReadCommand{
		OwnerID:        r.PathValue("owner_id"),
		NotificationID: req.NotificationID,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// ADMIN HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleAdminStats handles GET /api/v1/admin/stats.
func (s *Server) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.GetHubStats.Handle(r.Context(), query.GetHubStatsQuery{
		HistoryDays: getQueryParamInt(r, "history_days", 0),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleAdminTransactions handles GET /api/v1/admin/transactions.
func (s *Server) handleAdminTransactions(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.GetTransactions.Handle(r.Context(), query.GetTransactionsQuery{
		Type:   getQueryParam(r, "type", ""),
		Offset: getQueryParamInt(r, "offset", 0),
		Limit:  getQueryParamInt(r, "limit", 0),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleAdminAdjust handles POST /api/v1/admin/creatures/{id}/adjust.
func (s *Server) handleAdminAdjust(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount int64  `json:"amount"`
		Reason string `json:"reason"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	result, err := s.deps.AdjustBalance.Handle(r.Context(), command.AdjustBalanceCommand{
		CreatureID:    r.PathValue("id"),
		Amount:        req.Amount,
		Reason:        req.Reason,
		ActorID:       adminFromContext(r.Context()),
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleAdminEvolutionCheck handles
// POST /api/v1/admin/creatures/{id}/evolution-check.
func (s *Server) handleAdminEvolutionCheck(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.EvolutionFlow.Execute(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
