package httpserver

import (
	"net/http"

	"feathermart/internal/domain"
	"github.com/gin-gonic/gin"
)

type placeOrderRequest struct {
	ShippingAddress domain.ShippingAddress `json:"shippingAddress"`
}

type statusRequest struct {
	Status domain.OrderStatus `json:"status"`
}

func (a *api) placeOrder(c *gin.Context) {
	var req placeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body: %v", err)
		return
	}
	id, err := a.OrderSvc.PlaceOrder(c.Request.Context(), actorFrom(c), req.ShippingAddress)
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"orderId": id})
}

func (a *api) listOrders(c *gin.Context) {
	orders, err := a.OrderSvc.ListForUser(c.Request.Context(), actorFrom(c).UserID)
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	c.JSON(http.StatusOK, gin.H{"results": orders, "total": len(orders)})
}

func (a *api) getOrder(c *gin.Context) {
	order, err := a.OrderSvc.Get(c.Request.Context(), actorFrom(c).UserID, c.Param("id"))
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (a *api) updateOrderStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Status == "" {
		badRequest(c, "status is required")
		return
	}
	ctx := c.Request.Context()
	userID := actorFrom(c).UserID
	if err := a.VendorSvc.RequireFarmer(ctx, userID); err != nil {
		writeError(c, a.logger, err)
		return
	}
	order, err := a.OrderSvc.UpdateStatus(ctx, userID, c.Param("id"), req.Status)
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
