package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"instantanalytics/api/measurement"
	"instantanalytics/api/middleware"
	"instantanalytics/api/models"
)

// CommerceHandlers receive storefront events. Tracking is best effort, so
// every well-formed request is accepted.
type CommerceHandlers struct {
	log *zap.Logger
}

func NewCommerceHandlers(log *zap.Logger) *CommerceHandlers {
	return &CommerceHandlers{log: log}
}

type cartRequest struct {
	Order    *models.Order    `json:"order"`
	LineItem *models.LineItem `json:"lineItem" binding:"required"`
}

type checkoutRequest struct {
	Order  *models.Order `json:"order" binding:"required"`
	Step   int           `json:"step" binding:"required,min=1"`
	Option string        `json:"option"`
	Title  string        `json:"title"`
}

type orderRequest struct {
	Order *models.Order `json:"order" binding:"required"`
}

type productViewRequest struct {
	models.ProductOrVariant
	Detail bool   `json:"detail"`
	Title  string `json:"title"`
}

func (h *CommerceHandlers) AddToCart(c *gin.Context) {
	var req cartRequest
	if !h.bind(c, &req) {
		return
	}
	hit := middleware.GatewayFrom(c).AddToCart(c.Request.Context(), req.Order, req.LineItem)
	c.JSON(http.StatusAccepted, gin.H{"hit": hit})
}

func (h *CommerceHandlers) RemoveFromCart(c *gin.Context) {
	var req cartRequest
	if !h.bind(c, &req) {
		return
	}
	hit := middleware.GatewayFrom(c).RemoveFromCart(c.Request.Context(), req.Order, req.LineItem)
	c.JSON(http.StatusAccepted, gin.H{"hit": hit})
}

// Checkout adds the checkout step to the request's page view.
func (h *CommerceHandlers) Checkout(c *gin.Context) {
	var req checkoutRequest
	if !h.bind(c, &req) {
		return
	}
	g := middleware.GatewayFrom(c)
	hit := g.AddCheckoutStep(g.CurrentPageView(req.Title), req.Order, req.Step, req.Option)
	c.JSON(http.StatusAccepted, gin.H{"hit": hit})
}

func (h *CommerceHandlers) OrderComplete(c *gin.Context) {
	var req orderRequest
	if !h.bind(c, &req) {
		return
	}
	hit := middleware.GatewayFrom(c).OrderComplete(c.Request.Context(), req.Order)
	c.JSON(http.StatusAccepted, gin.H{"hit": hit})
}

// ProductView adds an impression, or a detail view when detail is set, to
// the request's page view.
func (h *CommerceHandlers) ProductView(c *gin.Context) {
	var req productViewRequest
	if !h.bind(c, &req) {
		return
	}
	g := middleware.GatewayFrom(c)
	page := g.CurrentPageView(req.Title)
	var hit *measurement.Hit
	if req.Detail {
		hit = g.AddProductDetailView(page, req.ProductOrVariant)
	} else {
		hit = g.AddProductImpression(page, req.ProductOrVariant)
	}
	c.JSON(http.StatusAccepted, gin.H{"hit": hit})
}

func (h *CommerceHandlers) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.log.Debug("invalid commerce request", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return false
	}
	return true
}
