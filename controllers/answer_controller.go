package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vnkhanh/survey-collector/middleware"
	"github.com/vnkhanh/survey-collector/models"
	"github.com/vnkhanh/survey-collector/services"
	"github.com/vnkhanh/survey-collector/utils"
)

type SubmitSurveyReq struct {
	Email      *string              `json:"email"`
	IsComplete *bool                `json:"isComplete"`
	StartedAt  *time.Time           `json:"startedAt"`
	Answers    []services.RawAnswer `json:"answers"`
}

// POST /api/forms/:id/submissions
func SubmitSurvey(svc *services.SubmissionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		surveyID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil || surveyID == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ID de encuesta no válido"})
			return
		}
		submit(c, svc, uint(surveyID))
	}
}

// POST /api/s/:link/responses
func SubmitByLink(db *gorm.DB, svc *services.SubmissionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var s models.Survey
		err := db.Select("id").
			Where("custom_link = ? AND status <> ?", c.Param("link"), models.SurveyStatusDeleted).
			First(&s).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "La encuesta no existe."})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "No se pudo leer la encuesta"})
			return
		}
		submit(c, svc, s.ID)
	}
}

func submit(c *gin.Context, svc *services.SubmissionService, surveyID uint) {
	var req SubmitSurveyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Datos enviados no válidos: " + err.Error()})
		return
	}

	respondent := services.Respondent{Email: req.Email}
	if u, ok := middleware.CurrentUser(c); ok {
		respondent.IdentityID = &u.ID
		if respondent.Email == nil || strings.TrimSpace(*respondent.Email) == "" {
			email := u.Email
			respondent.Email = &email
		}
	}
	if ip := c.ClientIP(); ip != "" {
		respondent.IPAddress = &ip
	}
	if ua := c.Request.UserAgent(); ua != "" {
		respondent.UserAgent = &ua
	}

	complete := true
	if req.IsComplete != nil {
		complete = *req.IsComplete
	}

	res, err := svc.Submit(c.Request.Context(), services.SubmitRequest{
		SurveyID:   surveyID,
		Respondent: respondent,
		Answers:    req.Answers,
		IsComplete: complete,
		StartedAt:  req.StartedAt,
	})
	if err != nil {
		writeSubmissionError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// submissionStatus maps a rejection kind to its HTTP status.
func submissionStatus(kind services.ErrorKind) int {
	switch kind {
	case services.KindSurveyNotFound:
		return http.StatusNotFound
	case services.KindSurveyNotPublished, services.KindSurveyOutsideWindow, services.KindResponseLimitReached:
		return http.StatusForbidden
	case services.KindDuplicateSubmission:
		return http.StatusConflict
	case services.KindRequiredFieldMissing, services.KindInvalidAnswerFormat:
		return http.StatusBadRequest
	case services.KindTimeout:
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func writeSubmissionError(c *gin.Context, err error) {
	var se *services.SubmissionError
	if !errors.As(err, &se) {
		utils.Logger.WithError(err).Error("unclassified submission error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No se pudo guardar la respuesta."})
		return
	}
	body := gin.H{"error": se.Message, "kind": se.Kind}
	if se.QuestionID != 0 {
		body["question_id"] = se.QuestionID
	}
	c.JSON(submissionStatus(se.Kind), body)
}

// GET /api/forms/:id/submissions?page=1&limit=10&start_date=2025-09-01&end_date=2025-09-21
func GetSubmissions(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := c.MustGet(middleware.CtxSurvey).(models.Survey)

		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
		if page < 1 {
			page = 1
		}
		if limit <= 0 || limit > 100 {
			limit = 10
		}
		offset := (page - 1) * limit

		query := db.Model(&models.SurveyResponse{}).Where("survey_id = ?", s.ID)
		if startDate, err := time.Parse("2006-01-02", c.Query("start_date")); err == nil {
			query = query.Where("started_at >= ?", startDate)
		}
		if endDate, err := time.Parse("2006-01-02", c.Query("end_date")); err == nil {
			// inclusive end day
			query = query.Where("started_at < ?", endDate.Add(24*time.Hour))
		}
		if c.Query("complete") == "true" {
			query = query.Where("is_complete = ?", true)
		}

		var total int64
		if err := query.Count(&total).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "No se pudo contar las respuestas"})
			return
		}

		var submissions []models.SurveyResponse
		if err := query.
			Preload("Answers", func(tx *gorm.DB) *gorm.DB { return tx.Order("position ASC") }).
			Order("started_at DESC, id DESC").
			Limit(limit).Offset(offset).
			Find(&submissions).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "No se pudo obtener la lista de respuestas"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"form_id":     s.ID,
			"page":        page,
			"limit":       limit,
			"total":       total,
			"submissions": submissions,
		})
	}
}

// GET /api/forms/:id/submissions/:sub_id
func GetSubmissionDetail(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := c.MustGet(middleware.CtxSurvey).(models.Survey)

		subID, err := strconv.ParseUint(c.Param("sub_id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ID de respuesta no válido"})
			return
		}

		var submission models.SurveyResponse
		if err := db.
			Preload("Answers", func(tx *gorm.DB) *gorm.DB { return tx.Order("position ASC") }).
			Where("id = ? AND survey_id = ?", subID, s.ID).
			First(&submission).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "La respuesta no existe"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "No se pudo leer la respuesta"})
			return
		}
		c.JSON(http.StatusOK, submission)
	}
}
