package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"resellerdash/dashboard"
	"resellerdash/middleware"
	"resellerdash/utils"
)

type CustomerController struct {
	Service *dashboard.Service
	Logger  *logrus.Entry
}

func NewCustomerController(service *dashboard.Service, logger *logrus.Entry) *CustomerController {
	return &CustomerController{
		Service: service,
		Logger:  logger,
	}
}

// GetCustomers lists customers with ?search, ?status, ?location and paging.
// The status and location filters back the pie chart drill-downs.
func (cc *CustomerController) GetCustomers(c *fiber.Ctx) error {
	customers := cc.Service.Customers(listFilter(c))
	return c.JSON(utils.SuccessResponse(paginate(c, customers)))
}

func (cc *CustomerController) GetCustomer(c *fiber.Ctx) error {
	id, err := utils.ParseID(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid customer ID", err)
	}
	detail, err := cc.Service.CustomerDetail(c.UserContext(), id)
	if err != nil {
		return utils.ErrorResponse(c, errorStatus(err), "Customer not found", err)
	}
	return c.JSON(utils.SuccessResponse(detail))
}

// CreateNote posts a note on the customer's CRM account.
func (cc *CustomerController) CreateNote(c *fiber.Ctx) error {
	admin, ok := middleware.CurrentAdmin(c)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Authorization required", nil)
	}
	id, err := utils.ParseID(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid customer ID", err)
	}

	var input struct {
		Comment string `json:"comment" validate:"required,max=2000"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	if err := cc.Service.SubmitNote(c.UserContext(), admin, id, input.Comment); err != nil {
		cc.Logger.WithError(err).WithField("customer_id", id).Error("submitting customer note failed")
		return utils.ErrorResponse(c, errorStatus(err), "Failed to submit note", err)
	}
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(fiber.Map{
		"customer_id": id,
		"comment":     input.Comment,
	}))
}
