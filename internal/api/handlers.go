package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"gitlab.com/timkado/api/daisi-crm-insights/internal/apperrors"
	"gitlab.com/timkado/api/daisi-crm-insights/internal/model"
	"gitlab.com/timkado/api/daisi-crm-insights/internal/observer"
	"gitlab.com/timkado/api/daisi-crm-insights/internal/tenant"
	"gitlab.com/timkado/api/daisi-crm-insights/internal/usecase"
	"gitlab.com/timkado/api/daisi-crm-insights/pkg/logger"
	"gitlab.com/timkado/api/daisi-crm-insights/pkg/utils"
)

const (
	transportHTTP = "http"

	maxRequestBodySize = 1 << 20 // 1MB
)

// InteractionListResponse is returned by the follow-up and recent queries.
type InteractionListResponse struct {
	OwnerID      string              `json:"owner_id"`
	Days         int                 `json:"days"`
	Count        int                 `json:"count"`
	Interactions []model.Interaction `json:"interactions"`
}

func handleCustomerInsights(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := utils.Now()
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req model.InsightRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			observer.ObserveInsightRequest(transportHTTP, outcomeLabel(http.StatusBadRequest), time.Since(start))
			utils.WriteJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
			return
		}

		ctx := r.Context()
		if req.OwnerID != "" {
			ctx = tenant.WithOwnerID(ctx, req.OwnerID)
		}

		resp, err := deps.Insights.GetCustomerInsights(ctx, req)
		if err != nil {
			status := writeServiceError(w, r, err)
			observer.ObserveInsightRequest(transportHTTP, outcomeLabel(status), time.Since(start))
			return
		}

		observer.ObserveInsightRequest(transportHTTP, outcomeLabel(http.StatusOK), time.Since(start))
		utils.WriteJSONResponse(w, http.StatusOK, resp)
	}
}

func handleUpcomingFollowUps(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, days, ok := listParams(w, r)
		if !ok {
			return
		}
		interactions, err := deps.Insights.UpcomingFollowUps(tenant.WithOwnerID(r.Context(), ownerID), ownerID, days)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeInteractionList(w, ownerID, days, interactions)
	}
}

func handleRecentInteractions(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, days, ok := listParams(w, r)
		if !ok {
			return
		}
		interactions, err := deps.Insights.RecentInteractions(tenant.WithOwnerID(r.Context(), ownerID), ownerID, days)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeInteractionList(w, ownerID, days, interactions)
	}
}

// listParams reads owner_id and days. A missing days is passed through as 0
// so the service applies its default window.
func listParams(w http.ResponseWriter, r *http.Request) (string, int, bool) {
	q := r.URL.Query()
	ownerID := q.Get("owner_id")
	if ownerID == "" {
		utils.WriteJSONError(w, http.StatusBadRequest, "owner_id is required")
		return "", 0, false
	}

	days := 0
	if raw := q.Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			utils.WriteJSONError(w, http.StatusBadRequest, fmt.Sprintf("days must be an integer: %q", raw))
			return "", 0, false
		}
		days = n
	}
	return ownerID, days, true
}

func writeInteractionList(w http.ResponseWriter, ownerID string, days int, interactions []model.Interaction) {
	if interactions == nil {
		interactions = []model.Interaction{}
	}
	if days == 0 {
		days = usecase.DefaultWindowDays
	}
	utils.WriteJSONResponse(w, http.StatusOK, InteractionListResponse{
		OwnerID:      ownerID,
		Days:         days,
		Count:        len(interactions),
		Interactions: interactions,
	})
}

// writeServiceError maps err onto a status and writes it. Internal detail of
// server errors is logged, not returned.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) int {
	status := apperrors.HTTPStatus(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("Request failed", zap.Error(err), zap.Int("status", status))
		if !errors.Is(err, apperrors.ErrTimeout) {
			message = "internal error"
		}
	}
	utils.WriteJSONError(w, status, message)
	return status
}

func outcomeLabel(status int) string {
	switch {
	case status < 400:
		return "ok"
	case status == http.StatusNotFound:
		return "not_found"
	case status < 500:
		return "client_error"
	default:
		return "server_error"
	}
}
