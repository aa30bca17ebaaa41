package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-report-cards/internal/middleware"
	"github.com/noah-isme/sma-report-cards/internal/models"
	appErrors "github.com/noah-isme/sma-report-cards/pkg/errors"
	"github.com/noah-isme/sma-report-cards/pkg/response"
)

// callerFromContext returns the authenticated caller or writes a 401 and
// returns nil.
func callerFromContext(c *gin.Context) *models.JWTClaims {
	claims := middleware.Claims(c)
	if claims == nil || claims.UserID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil
	}
	return claims
}

func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return false
	}
	return true
}

func requireSchool(c *gin.Context, schoolID string) bool {
	if strings.TrimSpace(schoolID) == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "schoolId required"))
		return false
	}
	return true
}
