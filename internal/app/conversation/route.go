package conversation

import "github.com/gin-gonic/gin"

func RegisterRoutes(rg gin.IRoutes, handler Handler) {
	rg.GET("/threads", handler.ListThreads)
	rg.POST("/threads", handler.CreateThread)
	rg.GET("/threads/:id", handler.ViewThread)
	rg.DELETE("/threads/:id", handler.DeleteThread)
	rg.POST("/threads/:id/messages", handler.PostMessage)
}
