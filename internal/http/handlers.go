package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"inventory/internal/domain"
	"inventory/internal/repository"
	"inventory/internal/service"
	"inventory/internal/source"
)

type Server struct {
	engine    *gin.Engine
	products  *service.ProductService
	dashboard *service.DashboardService
	loader    *source.Loader
}

func NewServer(products *service.ProductService, dashboard *service.DashboardService, loader *source.Loader) *Server {
	r := gin.New()
	r.Use(requestLogger(), gin.Recovery())
	s := &Server{engine: r, products: products, dashboard: dashboard, loader: loader}
	s.registerRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) registerRoutes() {
	// Swagger UI
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := s.engine.Group("/api/v1")
	{
		products := v1.Group("/products")
		products.POST("", s.createProduct)
		products.GET("", s.listProducts)
		products.GET(":id", s.getProduct)
		products.PUT(":id", s.updateProduct)
		products.DELETE(":id", s.deleteProduct)
		products.POST(":id/reserve", s.toggleReserved)

		dashboard := v1.Group("/dashboard")
		dashboard.GET("", s.renderDashboard)
		dashboard.GET("/export.csv", s.exportDashboard)
		dashboard.GET("/current", s.currentDashboard)
		dashboard.PUT("/filter", s.applyFilter)
		dashboard.DELETE("/filter", s.clearFilter)
		dashboard.POST("/sort/:field", s.toggleSort)
		dashboard.PUT("/page/:page", s.goToPage)

		v1.GET("/metrics/rollups", s.rollups)

		src := v1.Group("/source")
		src.POST("/load", s.loadSource)
		src.GET("/meta", s.sourceMeta)
	}
}

// @Summary Create product
// @Description Numeric and date fields may be sent as text or JSON numbers
// @Tags products
// @Accept json
// @Produce json
// @Param input body domain.ProductInput true "Product"
// @Success 201 {object} domain.Product
// @Failure 400 {object} map[string]any
// @Router /products [post]
func (s *Server) createProduct(c *gin.Context) {
	var req domain.ProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	p, err := s.products.Create(c, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// @Summary List products
// @Tags products
// @Produce json
// @Success 200 {array} domain.Product
// @Router /products [get]
func (s *Server) listProducts(c *gin.Context) {
	list, err := s.products.List(c)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Get product by id
// @Tags products
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} domain.Product
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /products/{id} [get]
func (s *Server) getProduct(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	p, err := s.products.GetByID(c, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary Update product
// @Description Replaces every editable field; the reservation flag is kept
// @Tags products
// @Accept json
// @Produce json
// @Param id path int true "Product ID"
// @Param input body domain.ProductInput true "Update"
// @Success 200 {object} domain.Product
// @Failure 400 {object} map[string]any
// @Failure 404 {object} map[string]string
// @Router /products/{id} [put]
func (s *Server) updateProduct(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req domain.ProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	p, err := s.products.Update(c, id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary Delete product
// @Tags products
// @Param id path int true "Product ID"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /products/{id} [delete]
func (s *Server) deleteProduct(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := s.products.Delete(c, id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Toggle reservation
// @Description Reserving sets stock to 0, releasing sets it to 10
// @Tags products
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} domain.Product
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /products/{id}/reserve [post]
func (s *Server) toggleReserved(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	p, err := s.products.ToggleReserved(c, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func parseID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

func writeError(c *gin.Context, err error) {
	status := mapErrorToStatus(err)
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		c.JSON(status, gin.H{"error": err.Error(), "fields": verr.Fields})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func mapErrorToStatus(err error) int {
	var verr *domain.ValidationError
	switch {
	case errors.Is(err, service.ErrInvalidInput), errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, source.ErrSourceUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
