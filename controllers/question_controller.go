package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/vnkhanh/survey-collector/middleware"
	"github.com/vnkhanh/survey-collector/models"
	"github.com/vnkhanh/survey-collector/services"
	"github.com/vnkhanh/survey-collector/utils"
)

// checkQuestion runs the stored form through the same parser the submission
// path uses, so a question that would break submissions is never saved.
func checkQuestion(c *gin.Context, q models.Question) bool {
	_, err := services.CanonicalizeQuestion(q)
	if err == nil {
		return true
	}
	msg := err.Error()
	var se *services.SubmissionError
	if errors.As(err, &se) && se.Err != nil {
		msg = se.Err.Error()
	}
	c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Pregunta no válida", "error": msg})
	return false
}

func invalidateSchema(c *gin.Context, schemas *services.SchemaLoader, surveyID uint) {
	if err := schemas.Invalidate(c.Request.Context(), surveyID); err != nil {
		utils.Logger.WithField("survey_id", surveyID).WithError(err).Warn("schema cache invalidation failed")
	}
}

func jsonColumn(raw json.RawMessage) datatypes.JSON {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return datatypes.JSON(raw)
}

/* ========== Add question ========== */

type addQuestionReq struct {
	Type        string          `json:"type"        binding:"required"`
	Title       string          `json:"title"       binding:"required"`
	Description string          `json:"description"`
	Required    bool            `json:"required"`
	Options     json.RawMessage `json:"options"`
	Validation  json.RawMessage `json:"validation"`
}

func AddQuestion(db *gorm.DB, schemas *services.SchemaLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		f := c.MustGet(middleware.CtxSurvey).(models.Survey)

		var req addQuestionReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Datos no válidos", "error": err.Error()})
			return
		}

		qt := services.ParseQuestionType(req.Type)
		if !qt.Known() {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Tipo de pregunta desconocido: " + req.Type})
			return
		}

		q := models.Question{
			SurveyID:    f.ID,
			Title:       strings.TrimSpace(req.Title),
			Description: req.Description,
			Type:        string(qt),
			Required:    req.Required,
			Options:     jsonColumn(req.Options),
			Validation:  jsonColumn(req.Validation),
		}
		if !checkQuestion(c, q) {
			return
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			// next position = MAX(position)+1, 1-based
			type nextRes struct{ Next int }
			var r nextRes
			if err := tx.Model(&models.Question{}).
				Where("survey_id = ?", f.ID).
				Select("COALESCE(MAX(position), 0) + 1 AS next").
				Scan(&r).Error; err != nil {
				return err
			}
			q.Position = r.Next
			return tx.Create(&q).Error
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "No se pudo añadir la pregunta"})
			return
		}
		invalidateSchema(c, schemas, f.ID)
		c.JSON(http.StatusCreated, gin.H{"question_id": q.ID, "form_id": f.ID, "position": q.Position})
	}
}

/* ========== Update question ========== */

type updateQuestionReq struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Type        *string          `json:"type"`
	Required    *bool            `json:"required"`
	Options     *json.RawMessage `json:"options"`
	Validation  *json.RawMessage `json:"validation"`
}

func UpdateQuestion(db *gorm.DB, schemas *services.SchemaLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := c.MustGet(middleware.CtxQuestion).(models.Question)

		var req updateQuestionReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Datos no válidos", "error": err.Error()})
			return
		}

		updates := map[string]interface{}{}
		if req.Title != nil {
			if strings.TrimSpace(*req.Title) == "" {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "El título no puede estar vacío"})
				return
			}
			q.Title = strings.TrimSpace(*req.Title)
			updates["title"] = q.Title
		}
		if req.Description != nil {
			q.Description = *req.Description
			updates["description"] = q.Description
		}
		if req.Type != nil {
			qt := services.ParseQuestionType(*req.Type)
			if !qt.Known() {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Tipo de pregunta desconocido: " + *req.Type})
				return
			}
			q.Type = string(qt)
			updates["type"] = q.Type
		}
		if req.Required != nil {
			q.Required = *req.Required
			updates["required"] = q.Required
		}
		if req.Options != nil {
			q.Options = jsonColumn(*req.Options)
			updates["options"] = q.Options
		}
		if req.Validation != nil {
			q.Validation = jsonColumn(*req.Validation)
			updates["validation"] = q.Validation
		}
		if len(updates) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"message": "No hay nada que actualizar"})
			return
		}
		if !checkQuestion(c, q) {
			return
		}

		if err := db.Model(&models.Question{}).Where("id = ?", q.ID).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "No se pudo actualizar la pregunta"})
			return
		}
		invalidateSchema(c, schemas, q.SurveyID)
		c.JSON(http.StatusOK, gin.H{"message": "updated"})
	}
}

/* ========== Delete question + re-pack positions ========== */

func DeleteQuestion(db *gorm.DB, schemas *services.SchemaLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := c.MustGet(middleware.CtxQuestion).(models.Question)

		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Delete(&models.Question{}, q.ID).Error; err != nil {
				return err
			}
			// later questions move up one slot
			return tx.Model(&models.Question{}).
				Where("survey_id = ? AND position > ?", q.SurveyID, q.Position).
				Update("position", gorm.Expr("position - 1")).Error
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "No se pudo eliminar la pregunta"})
			return
		}
		invalidateSchema(c, schemas, q.SurveyID)
		c.JSON(http.StatusOK, gin.H{"message": "deleted"})
	}
}

/* ========== Reorder ========== */

type reorderReq struct {
	QuestionIDs []uint `json:"question_ids" binding:"required,min=1"`
}

// ReorderQuestions takes the full list of question ids in their new order.
func ReorderQuestions(db *gorm.DB, schemas *services.SchemaLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		f := c.MustGet(middleware.CtxSurvey).(models.Survey)

		var req reorderReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Datos no válidos", "error": err.Error()})
			return
		}

		var existing []uint
		if err := db.Model(&models.Question{}).Where("survey_id = ?", f.ID).Pluck("id", &existing).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "No se pudo leer las preguntas"})
			return
		}
		if !sameIDSet(existing, req.QuestionIDs) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "La lista debe contener todas las preguntas de la encuesta exactamente una vez"})
			return
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			for i, id := range req.QuestionIDs {
				if err := tx.Model(&models.Question{}).Where("id = ?", id).Update("position", i+1).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "No se pudo reordenar"})
			return
		}
		invalidateSchema(c, schemas, f.ID)
		c.JSON(http.StatusOK, gin.H{"message": "reordered"})
	}
}

func sameIDSet(existing, given []uint) bool {
	if len(existing) != len(given) {
		return false
	}
	seen := make(map[uint]bool, len(existing))
	for _, id := range existing {
		seen[id] = true
	}
	for _, id := range given {
		if !seen[id] {
			return false
		}
		delete(seen, id)
	}
	return true
}
