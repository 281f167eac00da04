package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"feathermart/internal/domain"
	"github.com/gin-gonic/gin"
)

type addItemRequest struct {
	ProductID string                  `json:"productId"`
	Quantity  int                     `json:"quantity"`
	Product   *domain.ProductSnapshot `json:"product,omitempty"`
}

type updateItemRequest struct {
	Quantity  *int   `json:"quantity"`
	ProductID string `json:"productId"`
}

func (a *api) getCart(c *gin.Context) {
	c.JSON(http.StatusOK, a.CartSvc.GetCart(c.Request.Context(), actorFrom(c)))
}

func (a *api) clearCart(c *gin.Context) {
	if err := a.CartSvc.ClearCart(c.Request.Context(), actorFrom(c)); err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusOK, domain.NewCart(nil))
}

// addCartItem adds to the caller's cart. A guest without a session gets a
// fresh anonymous token in the response header. Guest lines carry a product
// snapshot, taken from the body or read from the catalog.
func (a *api) addCartItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body: %v", err)
		return
	}
	req.ProductID = strings.TrimSpace(req.ProductID)
	if req.ProductID == "" {
		badRequest(c, "productId is required")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	ctx := c.Request.Context()
	actor := actorFrom(c)
	if !actor.Authenticated {
		if actor.AnonymousID == "" {
			token, id, err := a.AnonymousSvc.Issue(ctx)
			if err != nil {
				writeError(c, a.logger, err)
				return
			}
			c.Header(anonymousTokenHeader, token)
			actor = domain.AnonymousActor(id)
		}
		if req.Product == nil {
			product, err := a.ProductSvc.Get(ctx, req.ProductID)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					err = domain.ErrProductNotFound
				}
				writeError(c, a.logger, err)
				return
			}
			snap := product.Snapshot()
			req.Product = &snap
		}
	}

	cart, err := a.CartSvc.AddItem(ctx, actor, req.ProductID, req.Quantity, req.Product)
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (a *api) updateCartItem(c *gin.Context) {
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Quantity == nil {
		badRequest(c, "quantity is required")
		return
	}
	cart, err := a.CartSvc.UpdateItemQuantity(c.Request.Context(), actorFrom(c), c.Param("lineId"), *req.Quantity, strings.TrimSpace(req.ProductID))
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (a *api) removeCartItem(c *gin.Context) {
	cart, err := a.CartSvc.RemoveItem(c.Request.Context(), actorFrom(c), c.Param("lineId"), strings.TrimSpace(c.Query("productId")))
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}
