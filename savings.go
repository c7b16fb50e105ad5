package main

import (
	"context"
	"net/http"

	"mankeu/models"
	"mankeu/pkg/ledger"

	"github.com/gin-gonic/gin"
)

func (s *Server) depositHandler(c *gin.Context) {
	s.moveSaving(c, s.ledger.Deposit)
}

func (s *Server) withdrawHandler(c *gin.Context) {
	s.moveSaving(c, s.ledger.Withdraw)
}

type savingMove func(ctx context.Context, userID, savingID uint, in ledger.MovementInput) (*models.Saving, *models.Transaction, error)

// moveSaving answers with the goal after the movement.
func (s *Server) moveSaving(c *gin.Context, move savingMove) {
	id, err := idParam(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	var in ledger.MovementInput
	if err := bindJSON(c, &in); err != nil {
		s.fail(c, err)
		return
	}
	saving, _, err := move(c.Request.Context(), currentUserID(c), id, in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, saving)
}

func (s *Server) goalHistoryHandler(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	page, err := pageParams(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	items, err := s.ledger.GoalHistory(c.Request.Context(), currentUserID(c), id, page)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}
