package rest

import (
	"errors"
	"net/http"

	"github.com/KevinKickass/OpenGroveCore/internal/devices"
	"github.com/KevinKickass/OpenGroveCore/internal/storage"
	"github.com/KevinKickass/OpenGroveCore/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func adapterResponse(a *devices.Attached) gin.H {
	return gin.H{
		"id":          a.ID,
		"name":        a.Board.Name,
		"iop":         a.Adapter.IOP().Name(),
		"variant":     a.Board.Variant,
		"modules":     a.Adapter.Modules(),
		"ports":       a.Adapter.Bindings(),
		"attached_at": a.AttachedAt,
	}
}

// lookupAdapter accepts a runtime ID or a board name.
func (s *Server) lookupAdapter(c *gin.Context) (*devices.Attached, bool) {
	ref := c.Param("id")
	manager := s.lm.DeviceManager()

	if id, err := uuid.Parse(ref); err == nil {
		if a, ok := manager.Get(id); ok {
			return a, true
		}
	}
	if a, ok := manager.GetByName(ref); ok {
		return a, true
	}

	c.JSON(http.StatusNotFound, types.NewErrorResponse("NOT_FOUND", "Adapter not found", ref))
	return nil, false
}

// GET /api/v1/adapters
func (s *Server) listAdapters(c *gin.Context) {
	attached := s.lm.DeviceManager().List()

	response := make([]gin.H, 0, len(attached))
	for _, a := range attached {
		response = append(response, gin.H{
			"id":      a.ID,
			"name":    a.Board.Name,
			"iop":     a.Board.IOP,
			"variant": a.Board.Variant,
			"ports":   len(a.Adapter.Bindings()),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"adapters": response,
		"count":    len(response),
	})
}

// GET /api/v1/adapters/:id
func (s *Server) getAdapter(c *gin.Context) {
	a, ok := s.lookupAdapter(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, adapterResponse(a))
}

// POST /api/v1/adapters
func (s *Server) attachAdapter(c *gin.Context) {
	var req types.BoardAssignment
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse("INVALID_REQUEST", "Invalid request body", err.Error()))
		return
	}
	if req.Name == "" || req.IOP == "" || req.Variant == "" {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse("INVALID_REQUEST", "name, iop and variant are required", nil))
		return
	}

	manager := s.lm.DeviceManager()
	a, err := manager.Attach(req)
	if err != nil {
		s.respondError(c, "Failed to attach adapter", err)
		return
	}

	response := adapterResponse(a)

	if store := s.lm.Storage(); store != nil {
		id, err := store.SaveAssignment(c.Request.Context(), req)
		if err != nil {
			if detachErr := manager.Detach(a.ID); detachErr != nil {
				s.logger.Error("Failed to detach unsaved adapter", zap.Error(detachErr))
			}
			s.respondError(c, "Failed to persist adapter", err)
			return
		}
		response["assignment_id"] = id
	}

	c.JSON(http.StatusCreated, response)
}

// DELETE /api/v1/adapters/:id
func (s *Server) detachAdapter(c *gin.Context) {
	a, ok := s.lookupAdapter(c)
	if !ok {
		return
	}

	if err := s.lm.DeviceManager().Detach(a.ID); err != nil {
		s.respondError(c, "Failed to detach adapter", err)
		return
	}

	if store := s.lm.Storage(); store != nil {
		err := store.DeleteAssignment(c.Request.Context(), a.Board.Name)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			s.respondError(c, "Failed to delete adapter from database", err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Adapter detached",
		"id":      a.ID,
	})
}
