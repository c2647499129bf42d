package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vnkhanh/survey-collector/middleware"
	"github.com/vnkhanh/survey-collector/models"
	"github.com/vnkhanh/survey-collector/services"
	"github.com/vnkhanh/survey-collector/utils"
)

var linkPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{2,63}$`)

/* ========== Create survey ========== */

type createFormReq struct {
	Title       string          `json:"title"       binding:"required,min=1"`
	Description string          `json:"description"`
	Settings    json.RawMessage `json:"settings"`
}

func CreateForm(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, _ := middleware.CurrentUser(c)

		var req createFormReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Datos no válidos", "error": err.Error()})
			return
		}

		form := models.Survey{
			Title:                  strings.TrimSpace(req.Title),
			Description:            req.Description,
			Status:                 models.SurveyStatusDraft,
			OwnerID:                &u.ID,
			AllowMultipleResponses: true,
		}
		if len(req.Settings) > 0 {
			settings, err := utils.ParseSettings(req.Settings)
			if err != nil {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
				return
			}
			if err := applySettings(&form, settings); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"message": "No se pudo guardar la configuración"})
				return
			}
		}

		token, hash, err := utils.GenerateEditToken()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "No se pudo generar el token de edición"})
			return
		}
		form.EditTokenHash = hash

		if err := db.Create(&form).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "No se pudo crear la encuesta"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"id":          form.ID,
			"title":       form.Title,
			"description": form.Description,
			"status":      form.Status,
			"owner_id":    form.OwnerID,
			"created_at":  form.CreatedAt,
			// returned once; only the hash is stored
			"edit_token": token,
		})
	}
}

/* ========== Survey detail (editor) ========== */

func GetFormDetail(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		f := c.MustGet(middleware.CtxSurvey).(models.Survey)

		var questions []models.Question
		if err := db.Where("survey_id = ?", f.ID).Order("position ASC, id ASC").Find(&questions).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "No se pudo obtener la encuesta"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"survey":    f,
			"settings":  settingsView(&f),
			"questions": questions,
		})
	}
}

/* ========== Update title/description ========== */

type updateFormReq struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

func UpdateForm(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		f := c.MustGet(middleware.CtxSurvey).(models.Survey)

		var req updateFormReq
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
			updates["title"] = strings.TrimSpace(*req.Title)
		}
		if req.Description != nil {
			updates["description"] = *req.Description
		}
		if len(updates) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"message": "No hay nada que actualizar"})
			return
		}

		if err := db.Model(&models.Survey{}).Where("id = ?", f.ID).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "No se pudo actualizar la encuesta"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "updated"})
	}
}

/* ========== Status transitions ========== */

func setStatus(db *gorm.DB, id uint, status string) error {
	return db.Model(&models.Survey{}).Where("id = ?", id).Update("status", status).Error
}

// DeleteForm is a soft delete: the survey disappears from every route.
func DeleteForm(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		f := c.MustGet(middleware.CtxSurvey).(models.Survey)
		if err := setStatus(db, f.ID, models.SurveyStatusDeleted); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "No se pudo eliminar la encuesta"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "deleted"})
	}
}

// PublishForm opens the survey for responses after checking that every
// question loads cleanly. A public link is generated when missing.
func PublishForm(db *gorm.DB, schemas *services.SchemaLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		f := c.MustGet(middleware.CtxSurvey).(models.Survey)

		if err := schemas.Invalidate(c.Request.Context(), f.ID); err != nil {
			utils.Logger.WithField("survey_id", f.ID).WithError(err).Warn("schema cache invalidation failed")
		}
		questions, err := schemas.Load(c.Request.Context(), f.ID)
		if err != nil {
			var se *services.SubmissionError
			if errors.As(err, &se) && se.Kind == services.KindSchemaInconsistency {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"message": se.Message, "question_id": se.QuestionID})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"message": "No se pudo leer las preguntas"})
			return
		}
		if len(questions) == 0 {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "La encuesta no tiene preguntas"})
			return
		}

		updates := map[string]interface{}{"status": models.SurveyStatusPublished}
		link := f.CustomLink
		if link == nil {
			generated := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
			link = &generated
			updates["custom_link"] = generated
		}
		if err := db.Model(&models.Survey{}).Where("id = ?", f.ID).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "No se pudo publicar la encuesta"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "published", "custom_link": *link})
	}
}

func CloseForm(db *gorm.DB) gin.HandlerFunc {
	return transition(db, "closed", models.SurveyStatusClosed, models.SurveyStatusPublished)
}

func ArchiveForm(db *gorm.DB) gin.HandlerFunc {
	return transition(db, "archived", models.SurveyStatusArchived,
		models.SurveyStatusDraft, models.SurveyStatusPublished, models.SurveyStatusClosed)
}

// RestoreForm brings an archived or closed survey back to draft.
func RestoreForm(db *gorm.DB) gin.HandlerFunc {
	return transition(db, "restored", models.SurveyStatusDraft, models.SurveyStatusArchived, models.SurveyStatusClosed)
}

func transition(db *gorm.DB, msg, to string, from ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		f := c.MustGet(middleware.CtxSurvey).(models.Survey)
		allowed := false
		for _, s := range from {
			if f.Status == s {
				allowed = true
				break
			}
		}
		if !allowed {
			c.JSON(http.StatusConflict, gin.H{"message": "Cambio de estado no permitido desde " + f.Status})
			return
		}
		if err := setStatus(db, f.ID, to); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "No se pudo cambiar el estado"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": msg, "status": to})
	}
}

/* ========== Settings ========== */

// settingsView rebuilds the settings document from the survey columns.
func settingsView(f *models.Survey) utils.SurveySettings {
	s := utils.SurveySettings{
		MaxResponses:           utils.NullableInt{Set: true, Value: f.MaxResponses},
		IsAnonymous:            &f.IsAnonymous,
		AllowMultipleResponses: &f.AllowMultipleResponses,
		DisplaySettings:        utils.ParseDisplaySettings(f.SettingsJSON),
	}
	if f.StartDate != nil {
		v := f.StartDate.Unix()
		s.StartAt = &v
	}
	if f.EndDate != nil {
		v := f.EndDate.Unix()
		s.ExpireAt = &v
	}
	return s
}

func applySettings(f *models.Survey, s *utils.SurveySettings) error {
	if s.MaxResponses.Set {
		f.MaxResponses = s.MaxResponses.Value
	}
	if s.IsAnonymous != nil {
		f.IsAnonymous = *s.IsAnonymous
	}
	if s.AllowMultipleResponses != nil {
		f.AllowMultipleResponses = *s.AllowMultipleResponses
	}
	if s.StartAt != nil {
		t := time.Unix(*s.StartAt, 0)
		f.StartDate = &t
	}
	if s.ExpireAt != nil {
		t := time.Unix(*s.ExpireAt, 0)
		f.EndDate = &t
	}
	display, err := utils.DisplaySettingsJSON(s.DisplaySettings)
	if err != nil {
		return err
	}
	f.SettingsJSON = display
	return nil
}

func GetFormSettings() gin.HandlerFunc {
	return func(c *gin.Context) {
		f := c.MustGet(middleware.CtxSurvey).(models.Survey)
		c.JSON(http.StatusOK, gin.H{"settings": settingsView(&f)})
	}
}

type updateSettingsReq struct {
	Settings json.RawMessage `json:"settings" binding:"required"`
}

// UpdateFormSettings overlays the given fields on the current settings.
// {"max_responses": null} removes the limit.
func UpdateFormSettings(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		f := c.MustGet(middleware.CtxSurvey).(models.Survey)

		var req updateSettingsReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Datos no válidos", "error": err.Error()})
			return
		}
		patch, err := utils.ParseSettings(req.Settings)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
			return
		}
		current := settingsView(&f)
		merged := utils.MergeSettings(&current, patch)
		if err := utils.ValidateSettings(merged); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
			return
		}
		if err := applySettings(&f, merged); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "No se pudo guardar la configuración"})
			return
		}

		if err := db.Model(&models.Survey{}).Where("id = ?", f.ID).Updates(map[string]interface{}{
			"max_responses":            f.MaxResponses,
			"is_anonymous":             f.IsAnonymous,
			"allow_multiple_responses": f.AllowMultipleResponses,
			"start_date":               f.StartDate,
			"end_date":                 f.EndDate,
			"settings_json":            f.SettingsJSON,
		}).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "No se pudo guardar la configuración"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "updated", "settings": settingsView(&f)})
	}
}

/* ========== Share link ========== */

type shareReq struct {
	CustomLink string `json:"custom_link"`
}

// ShareForm sets (or generates) the public slug of a survey.
func ShareForm(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		f := c.MustGet(middleware.CtxSurvey).(models.Survey)

		var req shareReq
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Datos no válidos"})
				return
			}
		}
		link := strings.ToLower(strings.TrimSpace(req.CustomLink))
		if link == "" {
			if f.CustomLink != nil {
				link = *f.CustomLink
			} else {
				link = strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
			}
		}
		if !linkPattern.MatchString(link) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "El enlace solo admite minúsculas, números y guiones (3-64)"})
			return
		}

		err := db.Model(&models.Survey{}).Where("id = ?", f.ID).Update("custom_link", link).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) || (err != nil && strings.Contains(err.Error(), "UNIQUE")) {
			c.JSON(http.StatusConflict, gin.H{"message": "Ese enlace ya está en uso"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "No se pudo guardar el enlace"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"custom_link": link, "share_path": "/s/" + link})
	}
}

/* ========== My surveys ========== */

func GetMyForms(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, _ := middleware.CurrentUser(c)

		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		if page < 1 {
			page = 1
		}
		if limit <= 0 || limit > 100 {
			limit = 20
		}

		q := db.Model(&models.Survey{}).Where("owner_id = ? AND status <> ?", u.ID, models.SurveyStatusDeleted)
		if status := strings.ToUpper(c.Query("status")); status != "" {
			q = q.Where("status = ?", status)
		}
		var total int64
		if err := q.Count(&total).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "No se pudo obtener las encuestas"})
			return
		}
		var forms []models.Survey
		if err := q.Order("updated_at DESC, id DESC").Limit(limit).Offset((page - 1) * limit).Find(&forms).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "No se pudo obtener las encuestas"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"page": page, "limit": limit, "total": total, "forms": forms})
	}
}

/* ========== Public survey ========== */

// GetPublicForm serves a published survey to respondents, with options
// already sanitized. Surveys outside their window answer 403.
func GetPublicForm(db *gorm.DB, schemas *services.SchemaLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		var f models.Survey
		err := db.Where("custom_link = ? AND status <> ?", c.Param("link"), models.SurveyStatusDeleted).First(&f).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "La encuesta no existe."})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "No se pudo leer la encuesta"})
			return
		}
		if err := services.CheckPublication(&f, time.Now()); err != nil {
			writeSubmissionError(c, err)
			return
		}

		questions, err := schemas.Load(c.Request.Context(), f.ID)
		if err != nil {
			writeSubmissionError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"id":           f.ID,
			"title":        f.Title,
			"description":  f.Description,
			"is_anonymous": f.IsAnonymous,
			"end_date":     f.EndDate,
			"settings":     utils.ParseDisplaySettings(f.SettingsJSON),
			"questions":    questions,
		})
	}
}
