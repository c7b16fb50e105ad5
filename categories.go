package main

import (
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"mankeu/models"
	"mankeu/pkg/apperr"
	"mankeu/pkg/goals"
	"mankeu/pkg/store"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxCategoryNameLen = 50

type categoryInput struct {
	Name *string              `json:"name"`
	Type *models.CategoryType `json:"type"`
}

func (in *categoryInput) apply(cat *models.Category) ([]string, error) {
	var cols []string
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" || utf8.RuneCountInString(name) > maxCategoryNameLen {
			return nil, apperr.Validation("name must be 1 to %d characters", maxCategoryNameLen)
		}
		if name != cat.Name {
			cat.Name = name
			cols = append(cols, "name")
		}
	}
	if in.Type != nil {
		if !in.Type.Valid() {
			return nil, apperr.Validation("type must be one of expense, income, saving")
		}
		if *in.Type != cat.Type {
			cat.Type = *in.Type
			cols = append(cols, "type")
		}
	}
	return cols, nil
}

func (s *Server) findCategory(c *gin.Context) (*models.Category, error) {
	id, err := idParam(c)
	if err != nil {
		return nil, err
	}
	var cat models.Category
	err = s.db.WithContext(c.Request.Context()).First(&cat, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("category not found")
	}
	if err != nil {
		return nil, store.Classify(err)
	}
	return &cat, nil
}

func (s *Server) listCategoriesHandler(c *gin.Context) {
	page, err := pageParams(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	cats := make([]models.Category, 0)
	if err := page.Apply(s.db.WithContext(c.Request.Context()).Order("id")).Find(&cats).Error; err != nil {
		s.fail(c, store.Classify(err))
		return
	}
	c.JSON(http.StatusOK, cats)
}

func (s *Server) getCategoryHandler(c *gin.Context) {
	cat, err := s.findCategory(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cat)
}

func (s *Server) createCategoryHandler(c *gin.Context) {
	var in categoryInput
	if err := bindJSON(c, &in); err != nil {
		s.fail(c, err)
		return
	}
	if in.Name == nil || in.Type == nil {
		s.fail(c, apperr.Validation("name and type are required"))
		return
	}
	var cat models.Category
	if _, err := in.apply(&cat); err != nil {
		s.fail(c, err)
		return
	}
	if err := s.db.WithContext(c.Request.Context()).Create(&cat).Error; err != nil {
		s.fail(c, store.Classify(err))
		return
	}
	c.JSON(http.StatusOK, cat)
}

// updateCategoryHandler changes a shared category. The row is locked while
// a type change is checked against the goal-linked transactions using it.
func (s *Server) updateCategoryHandler(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	var in categoryInput
	if err := bindJSON(c, &in); err != nil {
		s.fail(c, err)
		return
	}
	ctx := c.Request.Context()
	var cat models.Category
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&cat, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("category not found")
		}
		if err != nil {
			return err
		}
		before := cat.Type
		cols, err := in.apply(&cat)
		if err != nil || len(cols) == 0 {
			return err
		}
		if cat.Type != before {
			linked, err := goals.NewGormStore(tx).LinkedTransactions(ctx, cat.ID)
			if err != nil {
				return err
			}
			if err := goals.CheckRetype(before, cat.Type, linked); err != nil {
				return err
			}
		}
		return tx.Model(&cat).Select(cols).Updates(&cat).Error
	})
	if err != nil {
		s.fail(c, store.Classify(err))
		return
	}
	c.JSON(http.StatusOK, cat)
}

func (s *Server) deleteCategoryHandler(c *gin.Context) {
	cat, err := s.findCategory(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := s.db.WithContext(c.Request.Context()).Delete(cat).Error; err != nil {
		s.fail(c, store.Classify(err))
		return
	}
	c.JSON(http.StatusOK, cat)
}
