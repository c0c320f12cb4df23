package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"minpdf/metrics"
	"minpdf/pdf"
)

// Config holds application configuration
type Config struct {
	MaxFileSize int64
	UploadDir   string

	// Defaults for requests that leave a parameter out.
	ImagePage pdf.ImagePageOptions
	Reencode  pdf.ReencodeOptions

	// Optimize runs every result through pdf.Resave before it is returned.
	Optimize bool
}

func SetupRoutes(r *gin.Engine, config *Config) {
	r.Use(requestID(), accessLog())

	apiGroup := r.Group("/api/pdf")
	{
		apiGroup.POST("/upload", func(c *gin.Context) { HandleUpload(c, config) })
		apiGroup.POST("/pick", func(c *gin.Context) { HandlePick(c, config) })
		apiGroup.POST("/chain", func(c *gin.Context) { HandleChain(c, config) })
		apiGroup.POST("/jpeg", func(c *gin.Context) { HandleJPEG(c, config) })
		apiGroup.POST("/image-page", func(c *gin.Context) { HandleImagePage(c, config) })
		apiGroup.POST("/resave", func(c *gin.Context) { HandleResave(c, config) })
		apiGroup.POST("/remove-pages", func(c *gin.Context) { HandleRemovePages(c, config) })
	}

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "minpdf",
		})
	})

	metrics.Init()
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
}
