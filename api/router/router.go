package router

import (
	"github.com/gin-gonic/gin"

	"convert-gateway/api/handler"
)

func RegisterRoutes(r *gin.Engine, convertH *handler.ConvertHandler) {
	r.GET("/test", convertH.Health)

	api := r.Group("/api")
	{
		api.POST("/convert", convertH.Convert)

		conversions := api.Group("/conversions")
		{
			conversions.GET("", convertH.List)
			conversions.GET("/:id", convertH.Get)
		}
	}
}
