package middleware

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vnkhanh/survey-collector/models"
	"github.com/vnkhanh/survey-collector/utils"
)

const (
	HeaderEditToken = "X-Form-Edit-Token"
	CtxSurvey       = "surveyObj"   // survey loaded by the editor/owner checks
	CtxQuestion     = "questionObj" // question loaded by CheckQuestionEditor
)

func isOwner(u models.User, s *models.Survey) bool {
	return s.OwnerID != nil && *s.OwnerID == u.ID
}

// canEdit accepts the owner (JWT) or a valid edit token.
func canEdit(c *gin.Context, s *models.Survey) bool {
	if u, ok := CurrentUser(c); ok && (isOwner(u, s) || u.IsAdmin) {
		return true
	}
	token := c.GetHeader(HeaderEditToken)
	return token != "" && utils.VerifyEditToken(s.EditTokenHash, token)
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func loadLiveSurvey(db *gorm.DB, id uint) (*models.Survey, int, string) {
	var s models.Survey
	err := db.Where("id = ? AND status <> ?", id, models.SurveyStatusDeleted).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, http.StatusNotFound, "La encuesta no existe"
	}
	if err != nil {
		return nil, http.StatusInternalServerError, "No se pudo leer la encuesta"
	}
	return &s, 0, ""
}

// CheckSurveyEditor allows the request if (1) the JWT user owns the survey
// or (2) the X-Form-Edit-Token header matches. Deleted surveys are hidden.
func CheckSurveyEditor(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
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
		if !canEdit(c, s) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "No tienes permiso para editar esta encuesta"})
			return
		}
		c.Set(CtxSurvey, *s)
		c.Next()
	}
}

// CheckQuestionEditor is CheckSurveyEditor resolved through the question.
func CheckQuestionEditor(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		qid, ok := paramID(c, "id")
		if !ok {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "ID no válido"})
			return
		}

		var q models.Question
		if e := db.First(&q, qid).Error; e != nil {
			if errors.Is(e, gorm.ErrRecordNotFound) {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "La pregunta no existe"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "No se pudo leer la pregunta"})
			return
		}

		s, status, msg := loadLiveSurvey(db, q.SurveyID)
		if s == nil {
			c.AbortWithStatusJSON(status, gin.H{"message": msg})
			return
		}
		if !canEdit(c, s) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "No tienes permiso para editar esta pregunta"})
			return
		}
		c.Set(CtxSurvey, *s)
		c.Set(CtxQuestion, q)
		c.Next()
	}
}
