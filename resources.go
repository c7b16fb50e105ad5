package main

import (
	"net/http"

	"mankeu/pkg/store"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// resource describes a user-owned table served as CRUD endpoints. create
// validates a request body and builds the row; update applies a partial body
// and returns the changed columns.
type resource[T any, C any, U any] struct {
	name   string
	order  string
	create func(userID uint, in *C) (*T, error)
	update func(row *T, in *U) ([]string, error)
}

func mount[T any, C any, U any](g *gin.RouterGroup, s *Server, res resource[T, C, U]) {
	g.POST("", func(c *gin.Context) {
		var in C
		if err := bindJSON(c, &in); err != nil {
			s.fail(c, err)
			return
		}
		row, err := res.create(currentUserID(c), &in)
		if err != nil {
			s.fail(c, err)
			return
		}
		if err := s.db.WithContext(c.Request.Context()).Omit(clause.Associations).Create(row).Error; err != nil {
			s.fail(c, store.Classify(err))
			return
		}
		c.JSON(http.StatusOK, row)
	})

	g.GET("", func(c *gin.Context) {
		page, err := pageParams(c)
		if err != nil {
			s.fail(c, err)
			return
		}
		rows, err := store.ListOwned[T](c.Request.Context(), s.db, currentUserID(c), page, res.order)
		if err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, rows)
	})

	g.GET("/:id", func(c *gin.Context) {
		row, err := findOwned[T](c, s, currentUserID(c), res.name)
		if err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, row)
	})

	g.PUT("/:id", func(c *gin.Context) {
		var in U
		if err := bindJSON(c, &in); err != nil {
			s.fail(c, err)
			return
		}
		id, err := idParam(c)
		if err != nil {
			s.fail(c, err)
			return
		}
		ctx, userID := c.Request.Context(), currentUserID(c)
		var row *T
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			if row, err = store.LockOwned[T](ctx, tx, userID, id, res.name); err != nil {
				return err
			}
			cols, err := res.update(row, &in)
			if err != nil || len(cols) == 0 {
				return err
			}
			return tx.Model(row).Where("user_id = ?", userID).Select(cols).Updates(row).Error
		})
		if err != nil {
			s.fail(c, store.Classify(err))
			return
		}
		c.JSON(http.StatusOK, row)
	})

	g.DELETE("/:id", func(c *gin.Context) {
		userID := currentUserID(c)
		row, err := findOwned[T](c, s, userID, res.name)
		if err != nil {
			s.fail(c, err)
			return
		}
		if err := s.db.WithContext(c.Request.Context()).Where("user_id = ?", userID).Delete(row).Error; err != nil {
			s.fail(c, store.Classify(err))
			return
		}
		c.JSON(http.StatusOK, row)
	})
}

// findOwned resolves the :id path parameter to a row owned by userID.
func findOwned[T any](c *gin.Context, s *Server, userID uint, what string) (*T, error) {
	id, err := idParam(c)
	if err != nil {
		return nil, err
	}
	return store.FindOwned[T](c.Request.Context(), s.db, userID, id, what)
}
