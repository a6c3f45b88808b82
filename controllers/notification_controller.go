package controller

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"

	"resellerdash/dashboard"
	"resellerdash/models"
	"resellerdash/utils"
)

const wsPingInterval = 30 * time.Second

type NotificationController struct {
	Service *dashboard.Service
	Logger  *logrus.Entry
}

func NewNotificationController(service *dashboard.Service, logger *logrus.Entry) *NotificationController {
	return &NotificationController{
		Service: service,
		Logger:  logger,
	}
}

type unseenUpdate struct {
	Kind   models.EntityKind `json:"kind"`
	Unseen int               `json:"unseen"`
}

// wsCommand is a mark request sent by the client over the socket.
type wsCommand struct {
	Action string            `json:"action"`
	Kind   models.EntityKind `json:"kind"`
	ID     int64             `json:"id"`
}

// GetNotifications returns the badge counts and the ids behind them.
func (nc *NotificationController) GetNotifications(c *fiber.Ctx) error {
	out := fiber.Map{}
	for _, kind := range models.EntityKinds {
		out[string(kind)] = fiber.Map{
			"unseen": nc.Service.UnseenCount(kind),
			"ids":    nc.Service.UnseenIDs(kind),
		}
	}
	return c.JSON(utils.SuccessResponse(out))
}

// MarkSeen acknowledges one record.
func (nc *NotificationController) MarkSeen(c *fiber.Ctx) error {
	kind := models.EntityKind(c.Params("kind"))
	id, err := utils.ParseID(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid ID", err)
	}
	unseen, err := nc.Service.MarkSeen(kind, id)
	if err != nil {
		return utils.ErrorResponse(c, errorStatus(err), "Failed to mark as seen", err)
	}
	return c.JSON(utils.SuccessResponse(unseenUpdate{Kind: kind, Unseen: unseen}))
}

// MarkAllSeen acknowledges every record of a kind.
func (nc *NotificationController) MarkAllSeen(c *fiber.Ctx) error {
	kind := models.EntityKind(c.Params("kind"))
	unseen, err := nc.Service.MarkAllSeen(kind)
	if err != nil {
		return utils.ErrorResponse(c, errorStatus(err), "Failed to mark as seen", err)
	}
	return c.JSON(utils.SuccessResponse(unseenUpdate{Kind: kind, Unseen: unseen}))
}

// HandleWS pushes unseen count changes to the client and accepts
// {"action":"mark_seen"|"mark_all_seen"} commands.
func (nc *NotificationController) HandleWS(c *websocket.Conn) {
	defer c.Close()

	updates := make(chan unseenUpdate, 16)
	unsubscribe := nc.Service.Subscribe(func(kind models.EntityKind, unseen int) {
		select {
		case updates <- unseenUpdate{Kind: kind, Unseen: unseen}:
		default:
			// slow client; the next change carries the current count
		}
	})
	defer unsubscribe()

	for _, kind := range models.EntityKinds {
		if err := c.WriteJSON(unseenUpdate{Kind: kind, Unseen: nc.Service.UnseenCount(kind)}); err != nil {
			return
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var cmd wsCommand
			if err := c.ReadJSON(&cmd); err != nil {
				return
			}
			var err error
			switch cmd.Action {
			case "mark_seen":
				_, err = nc.Service.MarkSeen(cmd.Kind, cmd.ID)
			case "mark_all_seen":
				_, err = nc.Service.MarkAllSeen(cmd.Kind)
			}
			if err != nil {
				nc.Logger.WithError(err).WithField("action", cmd.Action).Debug("websocket command rejected")
			}
		}
	}()

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case u := <-updates:
			if err := c.WriteJSON(u); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
