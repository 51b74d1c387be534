package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/middleware"
	"github.com/noah-isme/sma-timetable-api/pkg/middleware/requestid"
)

// runMeta describes a generation outcome and who asked for it.
func runMeta(c *gin.Context, result *dto.TimetableResponse) map[string]interface{} {
	meta := map[string]interface{}{"runId": result.RunID, "cached": result.Cached}
	if claims := middleware.CurrentUser(c); claims != nil {
		meta["requestedBy"] = claims.UserID
		meta["role"] = string(claims.Role)
	}
	if id := requestid.Value(c); id != "" {
		meta["requestId"] = id
	}
	return meta
}
