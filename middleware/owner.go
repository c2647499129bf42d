package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CheckSurveyOwner loads the survey and requires the JWT user to own it.
// Edit tokens are not accepted here. Must run after AuthJWT.
func CheckSurveyOwner(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "No has iniciado sesión"})
			return
		}
		id, ok := paramID(c, "id")
		if !ok {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "ID no válido"})
			return
		}
		s, status, msg := loadLiveSurvey(db, id)
		if s == nil {
			c.AbortWithStatusJSON(status, gin.H{"message": msg})
			return
		}
		if !isOwner(u, s) && !u.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "No tienes permiso sobre esta encuesta"})
			return
		}
		c.Set(CtxSurvey, *s)
		c.Next()
	}
}
