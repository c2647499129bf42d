package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vnkhanh/survey-collector/models"
	"github.com/vnkhanh/survey-collector/utils"
)

const (
	CtxUser       = "user"
	CtxUserPublic = "userPublic"
)

// AuthJWT checks Authorization: Bearer <token>, loads the user and puts it
// in the context.
func AuthJWT(db *gorm.DB, issuer *utils.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawToken, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Falta el encabezado Authorization o no es válido"})
			return
		}
		user, status, msg := resolveUser(db, issuer, rawToken)
		if user == nil {
			c.AbortWithStatusJSON(status, gin.H{"message": msg})
			return
		}
		setUser(c, *user)
		c.Next()
	}
}

// OptionalAuth sets the user when a valid token is present and otherwise
// lets the request through anonymously.
func OptionalAuth(db *gorm.DB, issuer *utils.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rawToken, ok := bearerToken(c); ok {
			if user, _, _ := resolveUser(db, issuer, rawToken); user != nil {
				setUser(c, *user)
			}
		}
		c.Next()
	}
}

// RequireAdmin blocks routes reserved to admins. Must run after AuthJWT.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "No autorizado"})
			return
		}
		if !u.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Acceso denegado"})
			return
		}
		c.Next()
	}
}

func CurrentUser(c *gin.Context) (models.User, bool) {
	v, ok := c.Get(CtxUser)
	if !ok {
		return models.User{}, false
	}
	u, ok := v.(models.User)
	return u, ok
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) < 7 || !strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(authHeader[7:])
	return token, token != ""
}

func resolveUser(db *gorm.DB, issuer *utils.TokenIssuer, rawToken string) (*models.User, int, string) {
	claims, err := issuer.Verify(rawToken)
	if err != nil {
		return nil, http.StatusUnauthorized, "Token inválido"
	}
	// UserID is a decimal string in the claims
	uid, err := strconv.ParseUint(claims.UserID, 10, 64)
	if err != nil {
		return nil, http.StatusUnauthorized, "Token inválido"
	}
	var user models.User
	if err := db.First(&user, uid).Error; err != nil {
		return nil, http.StatusUnauthorized, "Usuario no encontrado"
	}
	return &user, 0, ""
}

func setUser(c *gin.Context, user models.User) {
	c.Set(CtxUser, user)
	c.Set(CtxUserPublic, gin.H{
		"id":         user.ID,
		"name":       user.Name,
		"email":      user.Email,
		"is_admin":   user.IsAdmin,
		"created_at": user.CreatedAt,
	})
}
