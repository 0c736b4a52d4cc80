package routes

import (
	"arguesurvey/controllers"

	"github.com/gin-gonic/gin"
)

// SetupSurveyRoutes registers the participant session API.
func SetupSurveyRoutes(router gin.IRouter) {
	sessions := router.Group("/api/survey/sessions")
	{
		sessions.POST("", controllers.OpenSession)
		sessions.GET("/:clientId", controllers.GetSession)
		sessions.DELETE("/:clientId", controllers.CloseSession)
		sessions.PUT("/:clientId/fields", controllers.SetField)
		sessions.POST("/:clientId/next", controllers.NextPage)
		sessions.POST("/:clientId/prev", controllers.PrevPage)
		sessions.POST("/:clientId/modal/dismiss", controllers.DismissModal)
		sessions.GET("/:clientId/download", controllers.DownloadResponses)
	}
}

// SetupResponseRoutes registers the submission endpoint and archive lookups.
func SetupResponseRoutes(router gin.IRouter) {
	router.POST("/save_response", controllers.SaveResponse)
	router.GET("/api/responses/latest", controllers.LatestResponse)
	router.GET("/api/responses/stats", controllers.ArchiveStats)
}
