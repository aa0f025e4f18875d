package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.CORS.AllowedOrigins,
		AllowMethods:     s.config.CORS.AllowedMethods,
		AllowHeaders:     s.config.CORS.AllowedHeaders,
		AllowCredentials: s.config.CORS.AllowCredentials,
		MaxAge:           time.Duration(s.config.CORS.MaxAge) * time.Second,
	}))

	r.MaxMultipartMemory = s.maxFileBytes()

	r.GET("/health", s.healthHandler)
	r.GET("/online", s.onlineHandler)

	r.POST("/import", s.importUploadHandler)
	r.POST("/import/url", s.importURLHandler)
	r.GET("/import/jobs", s.listJobsHandler)
	r.GET("/import/jobs/:id", s.getJobHandler)

	r.GET("/foods", s.listFoodsHandler)

	return r
}

func (s *Server) maxFileBytes() int64 {
	return int64(s.config.Import.MaxFileSizeMB) << 20
}
