package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// @Summary Load products from the upstream service
// @Description Replaces the store with one 0-based upstream page. On failure the store is kept.
// @Tags source
// @Produce json
// @Param page query int false "0-based upstream page"
// @Param size query int false "Page size"
// @Success 200 {object} source.Meta
// @Failure 400 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /source/load [post]
func (s *Server) loadSource(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil || page < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page"})
		return
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", "0"))
	if err != nil || size < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid size"})
		return
	}
	meta, err := s.loader.Load(c, page, size)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, meta)
}

// @Summary Last successful load
// @Tags source
// @Produce json
// @Success 200 {object} source.Meta
// @Failure 404 {object} map[string]string
// @Router /source/meta [get]
func (s *Server) sourceMeta(c *gin.Context) {
	meta := s.loader.Meta()
	if meta == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "nothing loaded yet"})
		return
	}
	c.JSON(http.StatusOK, meta)
}
