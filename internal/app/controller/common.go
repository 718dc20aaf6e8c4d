package controller

import (
	"strconv"

	"github.com/avoronova/foodgram-backend/config"
	"github.com/avoronova/foodgram-backend/internal/app/service"
	"github.com/avoronova/foodgram-backend/internal/app/view"
	"github.com/avoronova/foodgram-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// parsePagination reads ?page and ?limit, clamps them to the configured
// bounds and returns (page, limit, offset). Page numbering starts at 1.
func parsePagination(c *gin.Context, cfg *config.PaginationConfig) (int, int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(cfg.PageSize)))
	if err != nil || limit < 1 {
		limit = cfg.PageSize
	}
	if limit > cfg.MaxPageSize {
		limit = cfg.MaxPageSize
	}

	return page, limit, (page - 1) * limit
}

func totalPages(total int64, limit int) int64 {
	if limit <= 0 {
		return 0
	}
	return (total + int64(limit) - 1) / int64(limit)
}

// viewerSources bundles the services a controller needs to build a Viewer
// for response shaping.
type viewerSources struct {
	favorites     service.FavoriteService
	carts         service.CartService
	subscriptions service.SubscriptionService
}

// buildViewer assembles the caller's relation sets. Anonymous callers get
// the zero viewer; a partially failed lookup degrades to anonymous rather
// than failing the whole read.
func (s viewerSources) buildViewer(c *gin.Context) view.Viewer {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		return view.Anonymous()
	}

	favoriteIDs, err := s.favorites.GetFavoriteRecipeIDs(userID)
	if err != nil {
		log.Warn("Failed to load viewer favorites", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		return view.Anonymous()
	}
	cartIDs, err := s.carts.GetCartRecipeIDs(userID)
	if err != nil {
		log.Warn("Failed to load viewer cart", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		return view.Anonymous()
	}
	authorIDs, err := s.subscriptions.GetSubscribedAuthorIDs(userID)
	if err != nil {
		log.Warn("Failed to load viewer subscriptions", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		return view.Anonymous()
	}

	return view.NewViewer(userID, favoriteIDs, cartIDs, authorIDs)
}
