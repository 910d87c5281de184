package app

import (
	"habit_coach_backend/docs"
	"habit_coach_backend/internal/middleware"
	"habit_coach_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	api := router.Group("/api")
	api.Use(middleware.ConfigMiddleware(a.Config))
	api.GET("/health", c.health.HealthCheck)

	// 1. 可选认证：未登录也能看到课程目录，只有第 1 天可访问
	public := api.Group("")
	public.Use(middleware.TryAuthMiddleware(a.Config), a.limiter.Middleware())
	{
		public.GET("/lessons", c.lesson.ListLessons)
		public.GET("/lessons/day/:day/access", c.lesson.CheckAccess)
	}

	// 2. 需要登录
	auth := api.Group("")
	auth.Use(middleware.AuthMiddleware(a.Config), a.limiter.Middleware())
	{
		a.registerProgressRoutes(auth, c)
		a.registerLessonRoutes(auth, c)
		a.registerQuizRoutes(auth, c)
	}
}

func (a *App) registerProgressRoutes(r *gin.RouterGroup, c *controllers) {
	r.POST("/progress/start", c.progress.StartProgram)
	r.GET("/progress", c.progress.GetOverview)
}

func (a *App) registerLessonRoutes(r *gin.RouterGroup, c *controllers) {
	lessons := r.Group("/lessons/:id")
	{
		lessons.POST("/complete", c.lesson.CompleteLesson)
		lessons.GET("/status", c.lesson.GetStatus)
		lessons.PUT("/journal", c.lesson.SaveJournal)
		lessons.POST("/journal/attachment", c.lesson.UploadJournalAttachment)
		lessons.PUT("/movement", c.lesson.SetMovement)
	}
}

func (a *App) registerQuizRoutes(r *gin.RouterGroup, c *controllers) {
	quizzes := r.Group("/quizzes/:chapterId")
	{
		quizzes.POST("/attempts", c.quiz.RecordAttempt)
		quizzes.GET("/attempts", c.quiz.ListAttempts)
		quizzes.GET("/retry", c.quiz.CanRetry)
	}
}
