package api

import (
	"net/http"

	"entrena/coach-app/internal/domain"
	"entrena/coach-app/internal/service"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	programService service.ProgramService,
	planService service.PlanService,
	libraryService service.LibraryService,
	enrollmentService service.EnrollmentService,
) {
	authHandler := NewAuthHandler(authService)
	programHandler := NewProgramHandler(programService)
	planHandler := NewPlanHandler(planService)
	libraryHandler := NewLibraryHandler(libraryService)
	enrollmentHandler := NewEnrollmentHandler(enrollmentService)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", func(c *gin.Context) {
			userID, err := getUserIDFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
				return
			}
			role, _ := getUserRoleFromContext(c)
			c.JSON(http.StatusOK, gin.H{"userId": userID.Hex(), "role": role})
		})

		creatorOnly := RoleMiddleware(domain.RoleCreator)

		// --- Programs ---
		// Content reads are open to both roles; the client app walks the
		// same resolved hierarchy the dashboard does. Mutations are
		// creator-only.
		programGroup := protected.Group("/programs")
		{
			programGroup.POST("", creatorOnly, programHandler.CreateProgram)
			programGroup.GET("", creatorOnly, programHandler.GetMyPrograms)
			programGroup.GET("/:programId", programHandler.GetProgram)
			programGroup.PUT("/:programId", creatorOnly, programHandler.UpdateProgram)
			programGroup.DELETE("/:programId", creatorOnly, programHandler.DeleteProgram)
			programGroup.POST("/:programId/cover-upload", creatorOnly, programHandler.GenerateCoverUpload)

			// Modules
			programGroup.GET("/:programId/modules", programHandler.GetModules)
			programGroup.POST("/:programId/modules", creatorOnly, programHandler.CreateModule)
			programGroup.PUT("/:programId/modules/order", creatorOnly, programHandler.ReorderModules)
			programGroup.DELETE("/:programId/modules/:moduleId", creatorOnly, programHandler.DeleteModule)

			// Sessions
			programGroup.GET("/:programId/modules/:moduleId/sessions", programHandler.GetSessions)
			programGroup.POST("/:programId/modules/:moduleId/sessions", creatorOnly, programHandler.CreateSession)
			programGroup.GET("/:programId/modules/:moduleId/sessions/:sessionId", programHandler.GetSession)
			programGroup.PUT("/:programId/modules/:moduleId/sessions/:sessionId/override", creatorOnly, programHandler.UpdateSessionOverride)
			programGroup.GET("/:programId/modules/:moduleId/sessions/:sessionId/exercises", programHandler.GetExercises)
			programGroup.PUT("/:programId/sessions/order", creatorOnly, programHandler.ReorderSessions)
			programGroup.PUT("/:programId/sessions/:sessionId", creatorOnly, programHandler.UpdateSession)
			programGroup.DELETE("/:programId/sessions/:sessionId", creatorOnly, programHandler.DeleteSession)
			programGroup.POST("/:programId/sessions/:sessionId/image-upload", creatorOnly, programHandler.GenerateSessionImageUpload)
			programGroup.POST("/:programId/sessions/:sessionId/exercises", creatorOnly, programHandler.CreateExercise)

			// Exercises and sets
			programGroup.GET("/:programId/exercises/:exerciseId/sets", programHandler.GetSets)
			programGroup.PUT("/:programId/exercises/order", creatorOnly, programHandler.ReorderExercises)
			programGroup.PUT("/:programId/exercises/:exerciseId", creatorOnly, programHandler.UpdateExercise)
			programGroup.DELETE("/:programId/exercises/:exerciseId", creatorOnly, programHandler.DeleteExercise)
			programGroup.POST("/:programId/exercises/:exerciseId/sets", creatorOnly, programHandler.CreateSet)
			programGroup.PUT("/:programId/sets/:setId", creatorOnly, programHandler.UpdateSet)
			programGroup.DELETE("/:programId/sets/:setId", creatorOnly, programHandler.DeleteSet)
		}

		// --- Shared content plans ---
		planGroup := protected.Group("/plans")
		planGroup.Use(creatorOnly)
		{
			planGroup.POST("", planHandler.CreatePlan)
			planGroup.GET("", planHandler.GetMyPlans)
			planGroup.PUT("/:planId", planHandler.UpdatePlan)
			planGroup.DELETE("/:planId", planHandler.DeletePlan)
			planGroup.GET("/:planId/modules", planHandler.GetModules)
			planGroup.POST("/:planId/modules", planHandler.CreateModule)
			planGroup.PUT("/:planId/modules/order", planHandler.ReorderModules)
			planGroup.DELETE("/:planId/modules/:moduleId", planHandler.DeleteModule)
			planGroup.POST("/:planId/modules/:moduleId/sessions", planHandler.CreateSession)
		}

		// --- Content library ---
		libraryGroup := protected.Group("/library")
		libraryGroup.Use(creatorOnly)
		{
			libraryGroup.POST("/modules", libraryHandler.CreateModule)
			libraryGroup.GET("/modules", libraryHandler.GetModules)
			libraryGroup.GET("/modules/:moduleId", libraryHandler.GetModule)
			libraryGroup.PUT("/modules/:moduleId", libraryHandler.UpdateModule)
			libraryGroup.PUT("/modules/:moduleId/sessions", libraryHandler.SetModuleSessions)
			libraryGroup.DELETE("/modules/:moduleId", libraryHandler.DeleteModule)

			libraryGroup.POST("/sessions", libraryHandler.CreateSession)
			libraryGroup.GET("/sessions", libraryHandler.GetSessions)
			libraryGroup.PUT("/sessions/:sessionId", libraryHandler.UpdateSession)
			libraryGroup.DELETE("/sessions/:sessionId", libraryHandler.DeleteSession)
			libraryGroup.POST("/sessions/:sessionId/image-upload", libraryHandler.GenerateSessionImageUpload)
			libraryGroup.POST("/sessions/:sessionId/exercises", libraryHandler.CreateExercise)
			libraryGroup.GET("/sessions/:sessionId/exercises", libraryHandler.GetExercises)
			libraryGroup.PUT("/exercises/:exerciseId", libraryHandler.UpdateExercise)
			libraryGroup.DELETE("/exercises/:exerciseId", libraryHandler.DeleteExercise)
		}

		// --- Creator / client management ---
		creatorGroup := protected.Group("/creator")
		creatorGroup.Use(creatorOnly)
		{
			creatorGroup.POST("/clients", enrollmentHandler.AddClient)
			creatorGroup.GET("/clients", enrollmentHandler.GetClients)
			creatorGroup.POST("/clients/:clientId/programs/:programId", enrollmentHandler.AssignProgram)
		}

		clientGroup := protected.Group("/client")
		clientGroup.Use(RoleMiddleware(domain.RoleClient))
		{
			clientGroup.GET("/programs", enrollmentHandler.GetMyPrograms)
		}
	}
}
