package httpserver

import (
	"net/http"

	vendorsvc "feathermart/internal/service/vendor"
	"github.com/gin-gonic/gin"
)

func (a *api) createFarm(c *gin.Context) {
	var in vendorsvc.FarmInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid body: %v", err)
		return
	}
	farm, err := a.VendorSvc.CreateFarm(c.Request.Context(), actorFrom(c).UserID, in)
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusCreated, farm)
}

func (a *api) listFarms(c *gin.Context) {
	farms, err := a.VendorSvc.ListFarms(c.Request.Context(), actorFrom(c).UserID)
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": farms, "total": len(farms)})
}

func (a *api) updateFarm(c *gin.Context) {
	var in vendorsvc.FarmInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid body: %v", err)
		return
	}
	farm, err := a.VendorSvc.UpdateFarm(c.Request.Context(), actorFrom(c).UserID, c.Param("id"), in)
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusOK, farm)
}

func (a *api) createProduct(c *gin.Context) {
	var in vendorsvc.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid body: %v", err)
		return
	}
	product, err := a.VendorSvc.CreateProduct(c.Request.Context(), actorFrom(c).UserID, c.Param("id"), in)
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (a *api) listFarmProducts(c *gin.Context) {
	products, err := a.VendorSvc.ListProducts(c.Request.Context(), actorFrom(c).UserID, c.Param("id"))
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": products, "total": len(products)})
}

func (a *api) updateProduct(c *gin.Context) {
	var in vendorsvc.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid body: %v", err)
		return
	}
	product, err := a.VendorSvc.UpdateProduct(c.Request.Context(), actorFrom(c).UserID, c.Param("id"), in)
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusOK, product)
}
