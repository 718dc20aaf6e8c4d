package service

import (
	"errors"

	"github.com/avoronova/foodgram-backend/internal/app/model"
	"github.com/avoronova/foodgram-backend/internal/app/repository"
	"github.com/avoronova/foodgram-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrTagNotFound = errors.New("tag not found")
)

type TagService interface {
	GetAllTags() ([]model.Tag, error)
	GetTagByID(id uint) (*model.Tag, error)
}

type tagService struct {
	tagRepo repository.TagRepository
}

func NewTagService(tagRepo repository.TagRepository) TagService {
	return &tagService{tagRepo: tagRepo}
}

func (s *tagService) GetAllTags() ([]model.Tag, error) {
	logger.Debug("Fetching all tags")

	tags, err := s.tagRepo.FindAll()
	if err != nil {
		logger.Error("Failed to fetch tags", err)
		return nil, err
	}

	return tags, nil
}

func (s *tagService) GetTagByID(id uint) (*model.Tag, error) {
	logger.Debug("Fetching tag", map[string]interface{}{
		"tag_id": id,
	})

	tag, err := s.tagRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Tag not found", map[string]interface{}{
				"tag_id": id,
			})
			return nil, ErrTagNotFound
		}
		logger.Error("Failed to fetch tag", err, map[string]interface{}{
			"tag_id": id,
		})
		return nil, err
	}

	return tag, nil
}
