package rest

import (
	"errors"
	"net/http"

	"github.com/KevinKickass/OpenGroveCore/internal/adapter"
	"github.com/KevinKickass/OpenGroveCore/internal/devices"
	"github.com/KevinKickass/OpenGroveCore/internal/firmware/sim"
	"github.com/KevinKickass/OpenGroveCore/internal/types"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GET /api/v1/modules
func (s *Server) listModules(c *gin.Context) {
	defs := s.lm.Catalog().List()

	s.logger.Debug("Listing modules", zap.Int("count", len(defs)))

	class := c.Query("class")
	modules := make([]*types.ModuleDefinition, 0, len(defs))
	for _, def := range defs {
		if class != "" && def.Module.Class != class {
			continue
		}
		modules = append(modules, def)
	}

	c.JSON(http.StatusOK, gin.H{
		"modules": modules,
		"count":   len(modules),
	})
}

// GET /api/v1/modules/:name
func (s *Server) getModule(c *gin.Context) {
	name := c.Param("name")

	def, err := s.lm.Catalog().Lookup(name)
	if err != nil {
		if errors.Is(err, devices.ErrModuleNotFound) {
			c.JSON(http.StatusNotFound, types.NewErrorResponse("MODULE_NOT_FOUND", "Module not found", name))
			return
		}
		s.respondError(c, "Failed to load module", err)
		return
	}

	c.JSON(http.StatusOK, def)
}

// GET /api/v1/variants
func (s *Server) listVariants(c *gin.Context) {
	variants := adapter.Variants()
	c.JSON(http.StatusOK, gin.H{
		"variants": variants,
		"count":    len(variants),
	})
}

type statser interface {
	Stats() sim.Stats
}

// GET /api/v1/iops
func (s *Server) listIOPs(c *gin.Context) {
	manager := s.lm.DeviceManager()

	iops := make([]gin.H, 0)
	for _, iop := range manager.IOPs() {
		entry := gin.H{"name": iop.Name()}
		for _, a := range manager.List() {
			if a.Board.IOP == iop.Name() {
				entry["adapter"] = a.Board.Name
			}
		}
		if st, ok := iop.(statser); ok {
			stats := st.Stats()
			entry["loaded_modules"] = stats.Loaded
			entry["devices"] = stats.Devices
			entry["buses"] = stats.Buses
		}
		iops = append(iops, entry)
	}

	c.JSON(http.StatusOK, gin.H{
		"iops":  iops,
		"count": len(iops),
	})
}
