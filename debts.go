package main

import (
	"net/http"

	"mankeu/pkg/debt"

	"github.com/gin-gonic/gin"
)

func (s *Server) addDebtPaymentHandler(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	var in debt.PaymentInput
	if err := bindJSON(c, &in); err != nil {
		s.fail(c, err)
		return
	}
	p, d, err := s.debts.AddPayment(c.Request.Context(), currentUserID(c), id, in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": p, "debt": d})
}

func (s *Server) listDebtPaymentsHandler(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	items, err := s.debts.Payments(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) deleteDebtPaymentHandler(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	paymentID, err := uintParam(c, "paymentId")
	if err != nil {
		s.fail(c, err)
		return
	}
	d, err := s.debts.DeletePayment(c.Request.Context(), currentUserID(c), id, paymentID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (s *Server) toggleDebtPaidHandler(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	d, err := s.debts.TogglePaid(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}
