package handlers

import (
	"net/http"
	"strings"

	"github.com/viewtube/backend/internal/auth"
	"github.com/viewtube/backend/internal/graph"
	"github.com/viewtube/backend/internal/logging"
)

// ChannelHandler serves channel profiles and subscription endpoints.
type ChannelHandler struct {
	Graph   GraphToggler
	Queries GraphQueries
}

// Profile handles GET /api/v1/channels/{username}. The viewer's identity, if
// present, drives the isSubscribed flag.
func (h ChannelHandler) Profile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	username := strings.TrimSpace(strings.ToLower(r.PathValue("username")))
	if username == "" {
		respondInvalid(ctx, w, "username is required")
		return
	}

	viewerID := ""
	if viewer, ok := auth.IdentityFromContext(ctx); ok {
		viewerID = viewer.ID
	}

	profile, err := h.Queries.Profile(ctx, username, viewerID)
	if err != nil {
		logging.FromContext(ctx).Warn("channel profile lookup failed", "username", username, "error", err)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]graph.ChannelProfile{"channel": profile})
}

// ToggleSubscription handles POST /api/v1/subscriptions/channel/{channelId}.
func (h ChannelHandler) ToggleSubscription(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	user, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, auth.ErrUnauthorized)
		return
	}

	channelID := r.PathValue("channelId")
	subscribed, err := h.Graph.ToggleSubscription(ctx, user.ID, channelID)
	if err != nil {
		logging.FromContext(ctx).Warn("subscription toggle failed", "channelId", channelID, "error", err)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]bool{"subscribed": subscribed})
}

// Subscribers handles GET /api/v1/subscriptions/channel/{channelId}.
func (h ChannelHandler) Subscribers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	channelID := r.PathValue("channelId")
	page := pageFromRequest(r, graph.DefaultLimit)

	result, err := h.Queries.ChannelSubscribers(ctx, channelID, page)
	if err != nil {
		logging.FromContext(ctx).Warn("subscriber listing failed", "channelId", channelID, "error", err)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, result)
}

// SubscribedChannels handles GET /api/v1/subscriptions/user/{subscriberId}.
func (h ChannelHandler) SubscribedChannels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	subscriberID := r.PathValue("subscriberId")
	page := pageFromRequest(r, graph.DefaultLimit)

	viewerID := ""
	if viewer, ok := auth.IdentityFromContext(ctx); ok {
		viewerID = viewer.ID
	}

	result, err := h.Queries.SubscribedChannels(ctx, subscriberID, viewerID, page)
	if err != nil {
		logging.FromContext(ctx).Warn("subscribed channel listing failed", "subscriberId", subscriberID, "error", err)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, result)
}

// pageFromRequest reads the page and limit query parameters.
func pageFromRequest(r *http.Request, defaultLimit int) graph.Page {
	query := r.URL.Query()
	return graph.NewPage(query.Get("page"), query.Get("limit"), defaultLimit)
}
