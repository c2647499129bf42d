package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"google.golang.org/api/idtoken"
	"gorm.io/gorm"

	"github.com/vnkhanh/survey-collector/middleware"
	"github.com/vnkhanh/survey-collector/models"
	"github.com/vnkhanh/survey-collector/utils"
)

type RegisterReq struct {
	Name     string `json:"name"     binding:"required,min=1"`
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

func userView(u models.User) gin.H {
	return gin.H{
		"id":         u.ID,
		"name":       u.Name,
		"email":      u.Email,
		"is_admin":   u.IsAdmin,
		"created_at": u.CreatedAt,
	}
}

func Register(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
			return
		}
		email := strings.ToLower(strings.TrimSpace(req.Email))

		var count int64
		db.Model(&models.User{}).Where("email = ?", email).Count(&count)
		if count > 0 {
			c.JSON(http.StatusConflict, gin.H{"message": "El email ya está registrado"})
			return
		}

		hash, err := utils.HashPassword(req.Password)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "No se pudo cifrar la contraseña"})
			return
		}

		u := models.User{
			Name:     strings.TrimSpace(req.Name),
			Email:    email,
			Password: hash,
		}
		if err := db.Create(&u).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				c.JSON(http.StatusConflict, gin.H{"message": "El email ya está registrado"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"message": "No se pudo crear la cuenta"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"user": userView(u)})
	}
}

type LoginReq struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func Login(db *gorm.DB, issuer *utils.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
			return
		}

		var u models.User
		err := db.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&u).Error
		if err != nil || !utils.CheckPassword(u.Password, req.Password) {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Email o contraseña incorrectos"})
			return
		}

		issueToken(c, issuer, u)
	}
}

func issueToken(c *gin.Context, issuer *utils.TokenIssuer, u models.User) {
	token, err := issuer.Generate(u.ID, u.IsAdmin)
	if err != nil {
		utils.Logger.WithError(err).Error("sign token")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "No se pudo generar el token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": userView(u)})
}

// GoogleTokenValidator checks a Google ID token for the given audience.
// idtoken.Validate in production.
type GoogleTokenValidator func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

type googleLoginReq struct {
	IDToken string `json:"id_token" binding:"required"`
}

// GoogleLoginHandler signs a user in with a Google ID token, creating the
// account on first login.
func GoogleLoginHandler(db *gorm.DB, issuer *utils.TokenIssuer, clientID string, validate GoogleTokenValidator) gin.HandlerFunc {
	if validate == nil {
		validate = idtoken.Validate
	}
	return func(c *gin.Context) {
		if clientID == "" {
			c.JSON(http.StatusServiceUnavailable, gin.H{"message": "El inicio de sesión con Google no está configurado"})
			return
		}
		var req googleLoginReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
			return
		}

		payload, err := validate(c.Request.Context(), req.IDToken, clientID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Token de Google inválido"})
			return
		}
		email, _ := payload.Claims["email"].(string)
		email = strings.ToLower(strings.TrimSpace(email))
		if verified, _ := payload.Claims["email_verified"].(bool); email == "" || !verified {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "La cuenta de Google no tiene un email verificado"})
			return
		}
		name, _ := payload.Claims["name"].(string)
		if name == "" {
			name = email
		}

		var u models.User
		err = db.Where("email = ?", email).First(&u).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			u = models.User{Name: name, Email: email}
			err = db.Create(&u).Error
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "No se pudo iniciar sesión"})
			return
		}

		issueToken(c, issuer, u)
	}
}

func Me() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "No autorizado"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": userView(u)})
	}
}
