package rest

import (
	"errors"
	"net/http"

	"github.com/KevinKickass/OpenGroveCore/internal/adapter"
	"github.com/KevinKickass/OpenGroveCore/internal/devices"
	"github.com/KevinKickass/OpenGroveCore/internal/types"
	"github.com/gin-gonic/gin"
)

var errorCodes = []struct {
	err    error
	status int
	code   string
}{
	{adapter.ErrInvalidSpec, http.StatusBadRequest, "INVALID_SPEC"},
	{adapter.ErrUnknownPort, http.StatusBadRequest, "UNKNOWN_PORT"},
	{adapter.ErrUnknownVariant, http.StatusBadRequest, "UNKNOWN_VARIANT"},
	{devices.ErrUnknownIOP, http.StatusBadRequest, "UNKNOWN_IOP"},
	{adapter.ErrModuleNotFound, http.StatusUnprocessableEntity, "MODULE_NOT_FOUND"},
	{adapter.ErrUnsupportedAddress, http.StatusUnprocessableEntity, "UNSUPPORTED_ADDRESS"},
	{adapter.ErrIllegalChain, http.StatusUnprocessableEntity, "ILLEGAL_CHAIN"},
	{adapter.ErrBindingFailed, http.StatusUnprocessableEntity, "BINDING_FAILED"},
	{devices.ErrIOPInUse, http.StatusConflict, "IOP_IN_USE"},
	{devices.ErrDuplicateName, http.StatusConflict, "DUPLICATE_NAME"},
	{devices.ErrAdapterNotFound, http.StatusNotFound, "NOT_FOUND"},
}

func (s *Server) respondError(c *gin.Context, message string, err error) {
	status, code := http.StatusInternalServerError, "INTERNAL"
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			status, code = e.status, e.code
			break
		}
	}

	details := gin.H{"reason": err.Error()}
	var bindErr *adapter.BindError
	if errors.As(err, &bindErr) {
		details["port"] = bindErr.Port
		if bindErr.Module != "" {
			details["module"] = bindErr.Module
		}
	}
	var modErr *adapter.ModuleError
	if errors.As(err, &modErr) {
		details["module"] = modErr.Module
	}

	_ = c.Error(err)
	c.JSON(status, types.NewErrorResponse(code, message, details))
}
