package routes

import (
	controller "resellerdash/controllers"
	"resellerdash/dashboard"
	"resellerdash/middleware"
	"resellerdash/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"
)

var requestLogFormat = "[${time}] ${status} - ${latency} ${method} ${path}\n"

func SetupAuthRoutes(app *fiber.App, svc *dashboard.Service) {
	authLogger := utils.NewLogger("auth")
	authController := controller.NewAuthController(svc, authLogger)

	auth := app.Group("/auth", logger.New(logger.Config{
		Format: requestLogFormat,
	}))

	// Public auth endpoints (no authentication required)
	auth.Post("/login", middleware.LoginRateLimiter(), authController.Login)

	// Protected auth endpoints (require valid JWT)
	protectedAuth := auth.Group("", middleware.Protected())
	protectedAuth.Post("/logout", authController.Logout)
	protectedAuth.Get("/me", authController.GetCurrentAdmin)
	protectedAuth.Put("/profile", authController.UpdateProfile)

	authLogger.Info("Authentication routes initialized successfully")
}

func SetupAPIRoutes(app *fiber.App, svc *dashboard.Service) {
	dashboardController := controller.NewDashboardController(svc, utils.NewLogger("dashboard"))
	customerController := controller.NewCustomerController(svc, utils.NewLogger("customers"))
	leadController := controller.NewLeadController(svc, utils.NewLogger("leads"))
	notificationController := controller.NewNotificationController(svc, utils.NewLogger("notifications"))

	// API group with versioning and protection
	api := app.Group("/api/v1", middleware.Protected(), logger.New(logger.Config{
		Format: requestLogFormat,
	}))

	// Dashboard routes
	dash := api.Group("/dashboard")
	dash.Get("/stats", dashboardController.GetDashboardStats)
	dash.Get("/charts", dashboardController.GetCharts)
	dash.Get("/trend", dashboardController.GetTrend)
	dash.Post("/refresh", dashboardController.Refresh)
	api.Get("/templates", dashboardController.GetTemplates)
	api.Get("/deliveries", dashboardController.GetDeliveries)

	// Customer routes
	customer := api.Group("/customers")
	customer.Get("/", customerController.GetCustomers)
	customer.Get("/:id", customerController.GetCustomer)
	customer.Post("/:id/notes", customerController.CreateNote)

	// Lead routes
	lead := api.Group("/leads")
	lead.Get("/", leadController.GetLeads)
	lead.Get("/:id", leadController.GetLead)
	lead.Get("/:id/comments", leadController.GetComments)
	lead.Post("/:id/comments", leadController.CreateComment)

	// Notification routes
	notification := api.Group("/notifications")
	notification.Get("/", notificationController.GetNotifications)
	notification.Post("/:kind/seen", notificationController.MarkAllSeen)
	notification.Post("/:kind/:id/seen", notificationController.MarkSeen)

	// WebSocket route for unseen count pushes
	app.Use("/ws", middleware.Protected(), func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/notifications", websocket.New(notificationController.HandleWS))

	utils.NewLogger("routes").Info("API routes initialized successfully")
}

func SetupRoutes(app *fiber.App, svc *dashboard.Service) {
	// Setup health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":        "ok",
			"lastRefreshed": svc.LastRefreshed(),
		})
	})

	SetupAuthRoutes(app, svc)
	SetupAPIRoutes(app, svc)

	// Setup 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "Not Found",
			"message": "The requested resource was not found",
		})
	})
}
