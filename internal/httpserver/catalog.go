package httpserver

import (
	"net/http"
	"strconv"
	"strings"

	"feathermart/internal/domain"
	"github.com/gin-gonic/gin"
)

type farmResponse struct {
	Farm     *domain.Farm     `json:"farm"`
	Products []domain.Product `json:"products"`
}

func (a *api) listCategories(c *gin.Context) {
	categories, err := a.CategorySvc.List(c.Request.Context())
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	if categories == nil {
		categories = []domain.Category{}
	}
	c.JSON(http.StatusOK, gin.H{"results": categories, "total": len(categories)})
}

// searchProducts maps query parameters onto a ProductFilter. Prices are in cents.
func (a *api) searchProducts(c *gin.Context) {
	filter, err := parseProductFilter(c)
	if err != nil {
		badRequest(c, "%v", err)
		return
	}
	page, err := a.ProductSvc.Search(c.Request.Context(), filter)
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (a *api) getProduct(c *gin.Context) {
	product, err := a.ProductSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (a *api) getFarm(c *gin.Context) {
	ctx := c.Request.Context()
	farm, err := a.Farms.GetByID(ctx, c.Param("id"))
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	products, err := a.ProductSvc.ListByFarm(ctx, farm.ID)
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	c.JSON(http.StatusOK, farmResponse{Farm: farm, Products: products})
}

func parseProductFilter(c *gin.Context) (domain.ProductFilter, error) {
	filter := domain.ProductFilter{
		Text:     c.Query("q"),
		Category: c.Query("category"),
		FarmID:   c.Query("farmId"),
		Sort:     c.Query("sort"),
	}
	var err error
	if filter.MinPriceCents, err = optionalInt64(c, "minPrice"); err != nil {
		return filter, err
	}
	if filter.MaxPriceCents, err = optionalInt64(c, "maxPrice"); err != nil {
		return filter, err
	}
	if filter.Limit, err = intQuery(c, "limit"); err != nil {
		return filter, err
	}
	if filter.Offset, err = intQuery(c, "offset"); err != nil {
		return filter, err
	}
	if v := strings.TrimSpace(c.Query("inStock")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return filter, queryError("inStock")
		}
		filter.InStockOnly = b
	}
	return filter, nil
}

func optionalInt64(c *gin.Context, key string) (*int64, error) {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return nil, queryError(key)
	}
	return &n, nil
}

func intQuery(c *gin.Context, key string) (int, error) {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, queryError(key)
	}
	return n, nil
}

type queryError string

func (e queryError) Error() string {
	return "invalid query parameter " + string(e)
}
