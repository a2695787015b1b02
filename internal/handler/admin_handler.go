package handler

import (
	"net/http"

	"github.com/Eursukkul/ewm-service/internal/dto"
	"github.com/Eursukkul/ewm-service/internal/models"
	"github.com/Eursukkul/ewm-service/internal/service"
	"github.com/labstack/echo/v4"
)

type AdminHandler struct {
	events    service.EventService
	queries   service.QueryService
	admission service.AdmissionController
}

func NewAdminHandler(events service.EventService, queries service.QueryService, admission service.AdmissionController) *AdminHandler {
	return &AdminHandler{events: events, queries: queries, admission: admission}
}

func (h *AdminHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/admin/events")
	g.GET("", h.SearchEvents)
	g.PATCH("/:eventId", h.UpdateEvent)
	g.POST("/:eventId/ledger/reconcile", h.ReconcileLedger)
}

func (h *AdminHandler) SearchEvents(c echo.Context) error {
	users, err := uintList(c, "users")
	if err != nil {
		return err
	}
	categories, err := uintList(c, "categories")
	if err != nil {
		return err
	}
	var states []models.EventState
	for _, s := range listParam(c, "states") {
		states = append(states, models.EventState(s))
	}
	start, err := dateParam(c, "rangeStart")
	if err != nil {
		return err
	}
	end, err := dateParam(c, "rangeEnd")
	if err != nil {
		return err
	}
	sort, err := service.ParseSortKey(c.QueryParam("sort"))
	if err != nil {
		return err
	}
	from, size, err := page(c)
	if err != nil {
		return err
	}

	events, err := h.queries.SearchEventsAdmin(c.Request().Context(), service.AdminSearch{
		Users:      users,
		States:     states,
		Categories: categories,
		RangeStart: start,
		RangeEnd:   end,
		Sort:       sort,
		From:       from,
		Size:       size,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.ToEventFullDtos(events))
}

func (h *AdminHandler) UpdateEvent(c echo.Context) error {
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

	event, err := h.events.AdminPatchEvent(c.Request().Context(), eventID, req.Patch(), action)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.ToEventFullDto(event))
}

func (h *AdminHandler) ReconcileLedger(c echo.Context) error {
	eventID, err := pathID(c, "eventId")
	if err != nil {
		return err
	}

	report, err := h.admission.ReconcileLedger(c.Request().Context(), eventID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report)
}
