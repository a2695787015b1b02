package handler

import (
	"net/http"

	"github.com/Eursukkul/ewm-service/internal/dto"
	"github.com/Eursukkul/ewm-service/internal/lifecycle"
	"github.com/Eursukkul/ewm-service/internal/service"
	"github.com/labstack/echo/v4"
)

// EventHandler serves the initiator's own events under /users/:userId/events.
type EventHandler struct {
	svc service.EventService
}

func NewEventHandler(svc service.EventService) *EventHandler {
	return &EventHandler{svc: svc}
}

func (h *EventHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/users/:userId/events")
	g.POST("", h.CreateEvent)
	g.GET("", h.ListEvents)
	g.GET("/:eventId", h.GetEvent)
	g.PATCH("/:eventId", h.UpdateEvent)
}

func (h *EventHandler) CreateEvent(c echo.Context) error {
	userID, err := pathID(c, "userId")
	if err != nil {
		return err
	}
	var req dto.NewEventDto
	if err := bindBody(c, &req); err != nil {
		return err
	}

	event, err := h.svc.CreateEvent(c.Request().Context(), userID, req.ToModel())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, dto.ToEventFullDto(event))
}

func (h *EventHandler) ListEvents(c echo.Context) error {
	userID, err := pathID(c, "userId")
	if err != nil {
		return err
	}
	from, size, err := page(c)
	if err != nil {
		return err
	}

	events, err := h.svc.ListUserEvents(c.Request().Context(), userID, from, size)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.ToEventShortDtos(events))
}

func (h *EventHandler) GetEvent(c echo.Context) error {
	userID, err := pathID(c, "userId")
	if err != nil {
		return err
	}
	eventID, err := pathID(c, "eventId")
	if err != nil {
		return err
	}

	event, err := h.svc.GetUserEvent(c.Request().Context(), userID, eventID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.ToEventFullDto(event))
}

func (h *EventHandler) UpdateEvent(c echo.Context) error {
	userID, err := pathID(c, "userId")
	if err != nil {
		return err
	}
	eventID, err := pathID(c, "eventId")
	if err != nil {
		return err
	}
	var req dto.UpdateEventRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	action, err := stateAction(req.StateAction)
	if err != nil {
		return err
	}

	event, err := h.svc.PatchEvent(c.Request().Context(), userID, eventID, req.Patch(), action)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.ToEventFullDto(event))
}

func stateAction(raw *string) (*lifecycle.EventAction, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	action, err := lifecycle.ParseEventAction(*raw)
	if err != nil {
		return nil, err
	}
	return &action, nil
}
