package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"resellerdash/dashboard"
	"resellerdash/middleware"
	"resellerdash/utils"
)

type LeadController struct {
	Service *dashboard.Service
	Logger  *logrus.Entry
}

func NewLeadController(service *dashboard.Service, logger *logrus.Entry) *LeadController {
	return &LeadController{
		Service: service,
		Logger:  logger,
	}
}

// GetLeads returns paginated list of leads with filters
func (lc *LeadController) GetLeads(c *fiber.Ctx) error {
	leads := lc.Service.Leads(listFilter(c))
	return c.JSON(utils.SuccessResponse(paginate(c, leads)))
}

// GetLead returns a lead with its comments and the template list.
func (lc *LeadController) GetLead(c *fiber.Ctx) error {
	id, err := utils.ParseID(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid lead ID", err)
	}
	detail, err := lc.Service.LeadDetail(c.UserContext(), id)
	if err != nil {
		return utils.ErrorResponse(c, errorStatus(err), "Lead not found", err)
	}
	return c.JSON(utils.SuccessResponse(detail))
}

func (lc *LeadController) GetComments(c *fiber.Ctx) error {
	id, err := utils.ParseID(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid lead ID", err)
	}
	return c.JSON(utils.SuccessResponse(lc.Service.LeadComments(c.UserContext(), id)))
}

// CreateComment adds a comment to a lead, optionally tagged with a template.
func (lc *LeadController) CreateComment(c *fiber.Ctx) error {
	admin, ok := middleware.CurrentAdmin(c)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Authorization required", nil)
	}
	id, err := utils.ParseID(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid lead ID", err)
	}

	var input struct {
		Comment    string `json:"comment" validate:"required,max=2000"`
		TemplateID *int64 `json:"template_id" validate:"omitempty,gt=0"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	comment, err := lc.Service.AddLeadComment(c.UserContext(), admin, id, input.Comment, input.TemplateID)
	if err != nil {
		lc.Logger.WithError(err).WithField("lead_id", id).Error("adding lead comment failed")
		return utils.ErrorResponse(c, errorStatus(err), "Failed to add comment", err)
	}
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(comment))
}
