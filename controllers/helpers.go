package controller

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"resellerdash/dashboard"
	"resellerdash/models"
	"resellerdash/sources"
	"resellerdash/utils"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// errorStatus maps service errors to HTTP statuses.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, dashboard.ErrNotFound), errors.Is(err, sources.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, dashboard.ErrInvalidKind):
		return fiber.StatusBadRequest
	case errors.Is(err, sources.ErrInvalidCredentials), errors.Is(err, sources.ErrAuth):
		return fiber.StatusUnauthorized
	case errors.Is(err, sources.ErrUsernameTaken):
		return fiber.StatusConflict
	case errors.Is(err, sources.ErrUnavailable):
		return fiber.StatusServiceUnavailable
	}
	var httpErr *sources.HTTPError
	if errors.As(err, &httpErr) {
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

func paginate[T any](c *fiber.Ctx, items []T) utils.PaginatedResponse {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.Query("limit", strconv.Itoa(defaultPageSize)))
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	start := len(items)
	if page-1 <= len(items)/limit {
		start = (page - 1) * limit
	}
	if start > len(items) {
		start = len(items)
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return utils.PaginatedResponse{
		Data:  items[start:end],
		Total: int64(len(items)),
		Page:  page,
		Limit: limit,
	}
}

func listFilter(c *fiber.Ctx) dashboard.ListFilter {
	return dashboard.ListFilter{
		Search:   c.Query("search"),
		Status:   c.Query("status"),
		Location: models.Location(c.Query("location")),
	}
}
