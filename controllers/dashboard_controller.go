package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"resellerdash/analytics"
	"resellerdash/dashboard"
	"resellerdash/models"
	"resellerdash/utils"
)

type DashboardController struct {
	Service *dashboard.Service
	Logger  *logrus.Entry
}

func NewDashboardController(service *dashboard.Service, logger *logrus.Entry) *DashboardController {
	return &DashboardController{
		Service: service,
		Logger:  logger,
	}
}

// GetDashboardStats returns the counter cards and the snapshot they came from.
func (dc *DashboardController) GetDashboardStats(c *fiber.Ctx) error {
	snap := dc.Service.Snapshot()
	return c.JSON(utils.SuccessResponse(fiber.Map{
		"stats":         dc.Service.Stats(),
		"lastRefreshed": dc.Service.LastRefreshed(),
		"isSynthetic":   snap.IsSynthetic,
		"snapshotId":    snap.ID,
	}))
}

// GetCharts returns the status, location and template pie series.
func (dc *DashboardController) GetCharts(c *fiber.Ctx) error {
	return c.JSON(utils.SuccessResponse(dc.Service.Charts()))
}

// GetTrend returns the monthly acquisition grid for ?kind=customer|lead.
func (dc *DashboardController) GetTrend(c *fiber.Ctx) error {
	kind := models.EntityKind(c.Query("kind", string(models.KindCustomer)))
	grid, err := dc.Service.Trend(kind, analytics.TrendOptions{
		GroupByLocation: c.QueryBool("by_location"),
		GroupByStatus:   c.QueryBool("by_status"),
	})
	if err != nil {
		return utils.ErrorResponse(c, errorStatus(err), "Invalid trend request", err)
	}
	return c.JSON(utils.SuccessResponse(grid))
}

// Refresh rebuilds the snapshot now.
func (dc *DashboardController) Refresh(c *fiber.Ctx) error {
	res, err := dc.Service.Refresh(c.UserContext())
	if err != nil {
		dc.Logger.WithError(err).Warn("manual refresh aborted")
		return utils.ErrorResponse(c, fiber.StatusServiceUnavailable, "Refresh did not complete", err)
	}
	utils.LogEvent("manual_refresh", map[string]interface{}{
		"snapshot_id":  res.SnapshotID,
		"is_synthetic": res.IsSynthetic,
		"ip":           c.IP(),
	})
	return c.JSON(utils.SuccessResponse(res))
}

func (dc *DashboardController) GetTemplates(c *fiber.Ctx) error {
	return c.JSON(utils.SuccessResponse(dc.Service.Templates()))
}

// GetDeliveries returns the field delivery log.
func (dc *DashboardController) GetDeliveries(c *fiber.Ctx) error {
	res := dc.Service.Deliveries(c.UserContext())
	return c.JSON(utils.SuccessResponse(fiber.Map{
		"deliveries":  res.Data,
		"isSynthetic": res.IsSynthetic,
	}))
}
