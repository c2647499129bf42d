package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/vnkhanh/survey-collector/controllers"
	"github.com/vnkhanh/survey-collector/middleware"
	"github.com/vnkhanh/survey-collector/services"
	"github.com/vnkhanh/survey-collector/utils"
)

// Deps is everything the handlers need. cmd/main.go builds it once.
type Deps struct {
	DB     *gorm.DB
	Redis  *redis.Client
	Issuer *utils.TokenIssuer

	Schemas     *services.SchemaLoader
	Submissions *services.SubmissionService
	Analytics   *services.AnalyticsAggregator
	Reporter    *services.Reporter
	Exporter    *services.Exporter
	Storage     utils.FileStorage

	GoogleClientID string
	GoogleValidate controllers.GoogleTokenValidator

	CreateLimiter *middleware.IPRateLimiter
	SubmitLimiter *middleware.IPRateLimiter
}

func SetupRoutes(r *gin.Engine, d Deps) {
	db := d.DB

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})
	r.GET("/health", controllers.HealthCheck(db, d.Redis))

	auth := middleware.AuthJWT(db, d.Issuer)
	optional := middleware.OptionalAuth(db, d.Issuer)
	editor := middleware.CheckSurveyEditor(db)
	questionEditor := middleware.CheckQuestionEditor(db)
	owner := middleware.CheckSurveyOwner(db)

	api := r.Group("/api")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", controllers.Register(db))
			authGroup.POST("/login", controllers.Login(db, d.Issuer))
			authGroup.POST("/google/login", controllers.GoogleLoginHandler(db, d.Issuer, d.GoogleClientID, d.GoogleValidate))
		}
		api.GET("/me", auth, controllers.Me())

		admin := api.Group("/admin")
		admin.Use(auth, middleware.RequireAdmin())
		{
			admin.GET("/only", func(c *gin.Context) {
				c.JSON(200, gin.H{"ok": true})
			})
		}

		forms := api.Group("/forms")
		{
			forms.POST("", auth, middleware.RateLimitByIP(d.CreateLimiter), controllers.CreateForm(db))
			forms.GET("/my", auth, controllers.GetMyForms(db))

			// editor: JWT owner/admin or X-Form-Edit-Token
			forms.GET("/:id", optional, editor, controllers.GetFormDetail(db))
			forms.PUT("/:id", optional, editor, controllers.UpdateForm(db))
			forms.DELETE("/:id", optional, editor, controllers.DeleteForm(db))
			forms.PUT("/:id/publish", optional, editor, controllers.PublishForm(db, d.Schemas))
			forms.PUT("/:id/close", optional, editor, controllers.CloseForm(db))
			forms.PUT("/:id/archive", optional, editor, controllers.ArchiveForm(db))
			forms.PUT("/:id/restore", optional, editor, controllers.RestoreForm(db))
			forms.GET("/:id/settings", optional, editor, controllers.GetFormSettings())
			forms.PUT("/:id/settings", optional, editor, controllers.UpdateFormSettings(db))
			forms.POST("/:id/questions", optional, editor, controllers.AddQuestion(db, d.Schemas))
			forms.PUT("/:id/questions/reorder", optional, editor, controllers.ReorderQuestions(db, d.Schemas))

			// owner only (JWT)
			forms.POST("/:id/share", auth, owner, controllers.ShareForm(db))
			forms.GET("/:id/submissions", auth, owner, controllers.GetSubmissions(db))
			forms.GET("/:id/submissions/:sub_id", auth, owner, controllers.GetSubmissionDetail(db))
			forms.GET("/:id/analytics", auth, owner, controllers.GetDailyAnalytics(d.Analytics))
			forms.GET("/:id/summary", auth, owner, controllers.GetQuestionSummary(d.Reporter))
			forms.POST("/:id/export", auth, owner, controllers.CreateExport(d.Exporter))

			forms.POST("/:id/submissions", middleware.RateLimitByIP(d.SubmitLimiter), optional, controllers.SubmitSurvey(d.Submissions))
		}

		api.PUT("/questions/:id", optional, questionEditor, controllers.UpdateQuestion(db, d.Schemas))
		api.DELETE("/questions/:id", optional, questionEditor, controllers.DeleteQuestion(db, d.Schemas))

		public := api.Group("/s")
		{
			public.GET("/:link", controllers.GetPublicForm(db, d.Schemas))
			public.POST("/:link/responses", middleware.RateLimitByIP(d.SubmitLimiter), optional, controllers.SubmitByLink(db, d.Submissions))
		}

		api.POST("/uploads", middleware.RateLimitByIP(d.SubmitLimiter), controllers.UploadFile(d.Storage))
		api.GET("/exports/:job_id", auth, controllers.GetExport(db))
	}
}
