package router

import (
	"github.com/draftsync/internal/handler"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

const sessionName = "draftsync_session"

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, sessionSecret string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	// 配置会话中间件
	store := cookie.NewStore([]byte(sessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
	})
	r.Use(sessions.Sessions(sessionName, store))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	apiGroup := r.Group("/api")
	{
		apiGroup.POST("/login", api.Login)
		apiGroup.POST("/logout", api.Logout)

		// 需要认证的接口
		auth := apiGroup.Group("")
		auth.Use(handler.AuthRequired())
		{
			auth.GET("/posts", api.ListPosts)
			auth.POST("/posts", api.CreatePost)
			auth.GET("/posts/:id", api.GetPost)
			auth.DELETE("/posts/:id", api.DeletePost)
			auth.POST("/posts/:id/revisions", api.CreateRevision)
			auth.POST("/posts/:id/submit", api.SubmitPost)
			auth.POST("/posts/:id/sync", api.SyncPost)
			auth.POST("/posts/:id/editor-state", api.EditorState)

			auth.PUT("/revisions/:id", api.UpdateRevision)
			auth.GET("/revisions/:id/preview", api.PreviewRevision)
		}
	}

	return r
}
