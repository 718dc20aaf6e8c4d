package controller

import (
	"errors"
	"net/http"
	"strconv"

	apperrors "github.com/avoronova/foodgram-backend/internal/errors"

	"github.com/avoronova/foodgram-backend/internal/app/service"
	"github.com/avoronova/foodgram-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

type TagController struct {
	tagService service.TagService
}

func NewTagController(tagService service.TagService) *TagController {
	return &TagController{
		tagService: tagService,
	}
}

// ListTags returns the full tag catalog
// GET /api/v1/tags
func (ctrl *TagController) ListTags(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	tags, err := ctrl.tagService.GetAllTags()
	if err != nil {
		log.Error("Failed to fetch tags", err)
		apperrors.InternalError(c, "Failed to fetch tags")
		return
	}

	c.JSON(http.StatusOK, tags)
}

// GetTag returns a single tag
// GET /api/v1/tags/:id
func (ctrl *TagController) GetTag(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.RespondWithError(c, http.StatusBadRequest, apperrors.ValidationInvalidID, "Invalid tag ID")
		return
	}

	tag, err := ctrl.tagService.GetTagByID(uint(id))
	if err != nil {
		if errors.Is(err, service.ErrTagNotFound) {
			apperrors.RespondWithError(c, http.StatusNotFound, apperrors.TagNotFound, "Tag not found")
			return
		}
		log.Error("Failed to fetch tag", err, map[string]interface{}{
			"tag_id": id,
		})
		apperrors.InternalError(c, "Failed to fetch tag")
		return
	}

	c.JSON(http.StatusOK, tag)
}
