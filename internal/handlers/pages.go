package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// staticPage serves a view with no data of its own.
func staticPage(page string) gin.HandlerFunc {
	return func(c *gin.Context) {
		render(c, page, nil)
	}
}

// Health pings the store.
func (s *Server) Health(c *gin.Context) {
	if err := s.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"message": "Página não encontrada"})
}
