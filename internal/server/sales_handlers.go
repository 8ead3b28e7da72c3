package server

import (
	"strconv"

	"fileshare/internal/models"
	"fileshare/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetSalesMock handles GET /api/sales-mock
// @Summary Query mock sales
// @Description Filters the generated sales dataset and returns one page of ten records. The filtered total is sent in X-Total-Count.
// @Tags sales
// @Produce json
// @Param product query string false "Product name substring"
// @Param minAmount query number false "Minimum amount (inclusive)"
// @Param maxAmount query number false "Maximum amount (inclusive)"
// @Param startDate query string false "Earliest date (YYYY-MM-DD, inclusive)"
// @Param endDate query string false "Latest date (YYYY-MM-DD, inclusive)"
// @Param location query string false "Location substring"
// @Param userName query string false "Customer name substring"
// @Param page query int false "Page number, starting at 1"
// @Success 200 {array} models.SalesRecord
// @Header 200 {integer} X-Total-Count "Number of records matching the filters"
// @Failure 400 {object} models.ErrorResponse
// @Router /sales-mock [get]
func (s *Server) GetSalesMock(c *fiber.Ctx) error {
	page, err := s.salesService.Query(c.UserContext(), service.SalesQuery{
		Product:   c.Query("product"),
		MinAmount: c.Query("minAmount"),
		MaxAmount: c.Query("maxAmount"),
		StartDate: c.Query("startDate"),
		EndDate:   c.Query("endDate"),
		Location:  c.Query("location"),
		UserName:  c.Query("userName"),
		Page:      c.Query("page"),
	})
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	c.Set("X-Total-Count", strconv.Itoa(page.Total))
	return c.JSON(page.Records)
}
