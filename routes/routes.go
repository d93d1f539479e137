package routes

import (
	"net/http"
	"strings"
	"time"

	"aiinspire/handlers"
	"aiinspire/metrics"
	"aiinspire/middleware"
	"aiinspire/models"
	"aiinspire/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Options struct {
	CORSOrigins []string
	UploadDir   string
	Limiter     *middleware.RateLimiter
	Hub         *websocket.Manager
}

func SetupRouter(h *handlers.Handler, opts Options) *gin.Engine {
	router := gin.New()
	router.Use(middleware.Recovery(h.Log), middleware.Logger(h.Log), metrics.Middleware())

	// Without configured origins only same-origin requests are served.
	if len(opts.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     opts.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
			ExposeHeaders:    []string{"Content-Length", "Content-Type", "Retry-After"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/health", h.Health)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	if opts.UploadDir != "" {
		router.Static("/uploads", opts.UploadDir)
	}
	if opts.Hub != nil {
		router.GET("/ws", gin.WrapF(opts.Hub.Handler(middleware.SocketAuthenticator(h.Tokens, h.Store))))
	}

	api := router.Group("/api")
	api.Use(middleware.Authenticate(h.Tokens, h.Store))
	if opts.Limiter != nil {
		api.Use(opts.Limiter.Middleware())
	}

	// Public routes; the caller is known when a valid token is sent.
	api.GET("/health", h.Health)
	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)
	api.GET("/settings/public", h.PublicSettings)
	api.GET("/users/:id", h.GetUser)
	api.GET("/users/:id/posts", h.ListUserPosts)
	api.GET("/posts", h.ListPosts)
	api.GET("/posts/:id", h.GetPost)
	api.GET("/ai-platforms", h.ListAIPlatforms)
	api.GET("/ai-platforms/:id", h.GetAIPlatform)
	api.GET("/membership/products", h.ListProducts)
	api.GET("/spirit-posts", h.ListSpiritPosts)
	api.GET("/spirit-posts/:id", h.GetSpiritPost)
	api.GET("/screenings", h.ListScreenings)
	api.GET("/screenings/:id", h.GetScreening)
	api.GET("/screenings/:id/comments", h.ListComments)
	api.GET("/social-media", h.ListSocialMedia)
	api.GET("/push/vapid-public-key", h.GetVapidPublicKey)

	protected := api.Group("")
	protected.Use(middleware.RequireUser())

	// Profile
	protected.GET("/me", h.GetMe)
	protected.PUT("/me", h.UpdateMe)
	protected.PUT("/me/password", h.ChangePassword)
	protected.GET("/me/spirit-posts", h.MySpiritPosts)

	// Posts
	protected.POST("/posts", h.CreatePost)
	protected.PUT("/posts/:id", h.UpdatePost)
	protected.DELETE("/posts/:id", h.DeletePost)
	protected.POST("/posts/:id/like", h.LikePost)
	protected.DELETE("/posts/:id/like", h.UnlikePost)

	// Membership
	protected.POST("/membership/redeem", h.Redeem)
	protected.GET("/membership/me", h.MyMembership)

	// Spirit posts
	protected.POST("/spirit-posts", h.CreateSpiritPost)
	protected.PUT("/spirit-posts/:id", h.UpdateSpiritPost)
	protected.DELETE("/spirit-posts/:id", h.DeleteSpiritPost)
	protected.POST("/spirit-posts/:id/claim", h.Transition(models.SpiritClaim))
	protected.POST("/spirit-posts/:id/release", h.Transition(models.SpiritRelease))
	protected.POST("/spirit-posts/:id/complete", h.Transition(models.SpiritComplete))
	protected.POST("/spirit-posts/:id/close", h.Transition(models.SpiritClose))
	protected.GET("/spirit-posts/:id/messages", h.ListSpiritMessages)
	protected.POST("/spirit-posts/:id/messages", h.SendSpiritMessage)
	protected.POST("/spirit-posts/:id/messages/read", h.MarkSpiritMessagesRead)

	// Screening comments
	protected.POST("/screenings/:id/comments", h.CreateComment)
	protected.DELETE("/screening-comments/:id", h.DeleteComment)

	// Uploads and push
	protected.POST("/upload", h.Upload)
	protected.POST("/push/subscribe", h.SubscribePush)
	protected.DELETE("/push/subscribe", h.UnsubscribePush)

	admin := protected.Group("/admin")
	admin.Use(middleware.RequireAdmin())

	admin.GET("/stats", h.AdminStats)
	admin.GET("/users", h.AdminListUsers)
	admin.PUT("/users/:id", h.AdminUpdateUser)

	admin.POST("/ai-platforms", h.CreateAIPlatform)
	admin.PUT("/ai-platforms/:id", h.UpdateAIPlatform)
	admin.DELETE("/ai-platforms/:id", h.DeleteAIPlatform)

	admin.GET("/membership/products", h.AdminListProducts)
	admin.POST("/membership/products", h.CreateProduct)
	admin.PUT("/membership/products/:id", h.UpdateProduct)
	admin.DELETE("/membership/products/:id", h.DeleteProduct)
	admin.POST("/membership/codes", h.GenerateCodes)
	admin.GET("/membership/codes", h.ListCodes)
	admin.DELETE("/membership/codes/:id", h.DeleteCode)

	admin.POST("/screenings", h.CreateScreening)
	admin.PUT("/screenings/:id", h.UpdateScreening)
	admin.DELETE("/screenings/:id", h.DeleteScreening)

	admin.POST("/social-media", h.CreateSocialMedia)
	admin.PUT("/social-media/:id", h.UpdateSocialMedia)
	admin.DELETE("/social-media/:id", h.DeleteSocialMedia)

	admin.GET("/settings/:key", h.AdminGetSetting)
	admin.PUT("/settings/:key", h.AdminPutSetting)

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "endpoint not found",
				"path":  c.Request.URL.Path,
			})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return router
}
