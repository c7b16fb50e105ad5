package main

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"mankeu/pkg/apperr"
	"mankeu/pkg/ledger"
	"mankeu/pkg/receipt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const maxReceiptSize = 5 << 20

func (s *Server) createTransactionHandler(c *gin.Context) {
	var in ledger.CreateInput
	if err := bindJSON(c, &in); err != nil {
		s.fail(c, err)
		return
	}
	t, err := s.ledger.Create(c.Request.Context(), currentUserID(c), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Server) listTransactionsHandler(c *gin.Context) {
	page, err := pageParams(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	items, err := s.ledger.List(c.Request.Context(), currentUserID(c), page)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) getTransactionHandler(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	t, err := s.ledger.Get(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Server) updateTransactionHandler(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	var in ledger.UpdateInput
	if err := bindJSON(c, &in); err != nil {
		s.fail(c, err)
		return
	}
	t, err := s.ledger.Update(c.Request.Context(), currentUserID(c), id, in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Server) deleteTransactionHandler(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	t, err := s.ledger.Delete(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Server) bulkDeleteTransactionsHandler(c *gin.Context) {
	var req struct {
		IDs []int64 `json:"ids"`
	}
	if err := bindJSON(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	if req.IDs == nil {
		s.fail(c, apperr.Validation("ids is required"))
		return
	}
	ids := positiveIDs(req.IDs)
	if len(ids) == 0 {
		s.fail(c, apperr.NotFound("no transactions found to delete"))
		return
	}
	if _, err := s.ledger.BulkDelete(c.Request.Context(), currentUserID(c), ids); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// positiveIDs drops ids that can never name a row.
func positiveIDs(raw []int64) []uint {
	ids := make([]uint, 0, len(raw))
	for _, id := range raw {
		if id > 0 {
			ids = append(ids, uint(id))
		}
	}
	return ids
}

// scanReceiptHandler reads the amount off an uploaded receipt image. Nothing
// is recorded; the client confirms the suggestion with a normal create.
func (s *Server) scanReceiptHandler(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		s.fail(c, apperr.Validation("file missing"))
		return
	}
	if file.Size > maxReceiptSize {
		s.fail(c, apperr.Validation("file too large (max 5MB)"))
		return
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".bmp", ".tif", ".tiff", ".gif":
	default:
		s.fail(c, apperr.Validation("unsupported image type %q", ext))
		return
	}
	dir := filepath.Join(s.cfg.UploadBase, "scans")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.fail(c, apperr.Internal(err))
		return
	}
	path := filepath.Join(dir, uuid.NewString()+ext)
	if err := c.SaveUploadedFile(file, path); err != nil {
		s.fail(c, apperr.Internal(err))
		return
	}
	defer os.Remove(path)

	sug, _, err := s.scanner.Scan(c.Request.Context(), path)
	if errors.Is(err, receipt.ErrNoAmount) {
		s.fail(c, apperr.Validation("no amount detected"))
		return
	}
	if err != nil {
		s.fail(c, apperr.Internal(err))
		return
	}
	c.JSON(http.StatusOK, sug)
}
