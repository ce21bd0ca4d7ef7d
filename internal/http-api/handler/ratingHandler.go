package handler

import (
	"errors"
	"net/http"
	"strconv"

	"ratehub/internal/http-api/dto"
	"ratehub/internal/http-api/middleware"
	"ratehub/internal/http-api/service"

	"github.com/gin-gonic/gin"
)

type RatingHandler struct {
	ratingService service.RatingService
}

func NewRatingHandler(ratingService service.RatingService) *RatingHandler {
	return &RatingHandler{
		ratingService: ratingService,
	}
}

// RegisterRoutes registers rating-related routes
func (h *RatingHandler) RegisterRoutes(router *gin.RouterGroup) {
	items := router.Group("/items/:item_id")
	{
		items.GET("/ratings", h.GetAggregate)   // Aggregate for one item
		items.GET("/ratings/me", h.HasVoted)    // Has this viewer voted
		items.POST("/ratings", h.Submit)        // Cast a vote
		items.PUT("/settings", h.PutSettings)   // Enable/disable ratings
	}

	ratings := router.Group("/ratings")
	{
		ratings.GET("/top", h.TopRated)   // Ranked listing
		ratings.GET("/recent", h.Recent)  // Latest votes
		ratings.GET("/labels", h.Labels)  // Fixed tier labels
	}
}

// Submit casts the viewer's vote for an item
// POST /api/items/:item_id/ratings
func (h *RatingHandler) Submit(c *gin.Context) {
	itemID := c.Param("item_id")

	voterToken, ok := middleware.CurrentVoterToken(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing voter token"})
		return
	}

	var req dto.SubmitRatingDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.ratingService.Submit(c.Request.Context(), itemID, req.Value, voterToken)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SubmitResponse{
		Message:    "Thanks for rating!",
		RatingData: dto.FromAggregate(result.Aggregate),
		Label:      result.Label,
	})
}

// GetAggregate returns count, average and stars for an item
// GET /api/items/:item_id/ratings
func (h *RatingHandler) GetAggregate(c *gin.Context) {
	itemID := c.Param("item_id")

	agg, err := h.ratingService.GetAggregate(c.Request.Context(), itemID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromAggregate(agg))
}

// HasVoted reports whether the current viewer already rated the item
// GET /api/items/:item_id/ratings/me
func (h *RatingHandler) HasVoted(c *gin.Context) {
	itemID := c.Param("item_id")

	voterToken, ok := middleware.CurrentVoterToken(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing voter token"})
		return
	}

	voted, err := h.ratingService.HasVoted(c.Request.Context(), itemID, voterToken)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"voted": voted})
}

// PutSettings toggles ratings for an item
// PUT /api/items/:item_id/settings
func (h *RatingHandler) PutSettings(c *gin.Context) {
	itemID := c.Param("item_id")

	var req dto.ItemSettingsDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.ratingService.SetRatingsDisabled(c.Request.Context(), itemID, *req.RatingsDisabled); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"item_id": itemID, "ratings_disabled": *req.RatingsDisabled})
}

// TopRated lists the best-rated items
// GET /api/ratings/top?limit=10
func (h *RatingHandler) TopRated(c *gin.Context) {
	limit := parseLimit(c.DefaultQuery("limit", "10"), 10, 100)

	items, err := h.ratingService.TopRated(c.Request.Context(), limit)
	if err != nil {
		h.writeError(c, err)
		return
	}

	entries := make([]dto.TopRatedEntry, 0, len(items))
	for _, item := range items {
		agg := item.Aggregate()
		display := dto.FromAggregate(agg)
		entries = append(entries, dto.TopRatedEntry{
			ItemID:  item.ItemID,
			Count:   display.Count,
			Average: display.Average,
			Stars:   display.Stars,
			Label:   service.LabelFor(display.Stars),
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": entries})
}

// Recent lists the latest votes
// GET /api/ratings/recent?limit=50
func (h *RatingHandler) Recent(c *gin.Context) {
	limit := parseLimit(c.DefaultQuery("limit", "50"), 50, 200)

	events, err := h.ratingService.Recent(c.Request.Context(), limit)
	if err != nil {
		h.writeError(c, err)
		return
	}

	entries := make([]dto.RecentRatingResponse, 0, len(events))
	for _, event := range events {
		entries = append(entries, dto.FromRatingEvent(event, service.LabelFor(event.Value)))
	}

	c.JSON(http.StatusOK, gin.H{"data": entries})
}

// Labels exposes the fixed tier label table, indexed 1..5
// GET /api/ratings/labels
func (h *RatingHandler) Labels(c *gin.Context) {
	labels := service.Labels()
	table := make(map[string]string, len(labels))
	for i, label := range labels {
		table[strconv.Itoa(i+1)] = label
	}

	c.JSON(http.StatusOK, gin.H{"labels": table})
}

func (h *RatingHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidValue):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid rating value"})
	case errors.Is(err, service.ErrAlreadyVoted):
		c.JSON(http.StatusConflict, gin.H{"error": "Already rated"})
	case errors.Is(err, service.ErrRatingsDisabled):
		c.JSON(http.StatusForbidden, gin.H{"error": "Ratings are disabled for this item"})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": "Rating storage unavailable, try again"})
	}
}

func parseLimit(raw string, def, max int) int {
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
