package handler

import (
	"net/http"

	"github.com/Eursukkul/ewm-service/internal/dto"
	"github.com/Eursukkul/ewm-service/internal/models"
	"github.com/Eursukkul/ewm-service/internal/service"
	"github.com/labstack/echo/v4"
)

type RequestHandler struct {
	svc service.RequestService
}

func NewRequestHandler(svc service.RequestService) *RequestHandler {
	return &RequestHandler{svc: svc}
}

func (h *RequestHandler) RegisterRoutes(e *echo.Echo) {
	users := e.Group("/users/:userId")
	users.GET("/requests", h.ListUserRequests)
	users.POST("/requests", h.CreateRequest)
	users.PATCH("/requests/:requestId/cancel", h.CancelRequest)

	users.GET("/events/:eventId/requests", h.ListEventRequests)
	users.PATCH("/events/:eventId/requests", h.ModerateRequests)
}

func (h *RequestHandler) CreateRequest(c echo.Context) error {
	userID, err := pathID(c, "userId")
	if err != nil {
		return err
	}
	eventID, err := queryID(c, "eventId")
	if err != nil {
		return err
	}

	req, err := h.svc.CreateRequest(c.Request().Context(), userID, eventID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, dto.ToRequestDto(req))
}

func (h *RequestHandler) CancelRequest(c echo.Context) error {
	userID, err := pathID(c, "userId")
	if err != nil {
		return err
	}
	requestID, err := pathID(c, "requestId")
	if err != nil {
		return err
	}

	req, err := h.svc.CancelRequest(c.Request().Context(), userID, requestID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.ToRequestDto(req))
}

func (h *RequestHandler) ListUserRequests(c echo.Context) error {
	userID, err := pathID(c, "userId")
	if err != nil {
		return err
	}

	reqs, err := h.svc.ListRequestsByUser(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.ToRequestDtos(reqs))
}

func (h *RequestHandler) ListEventRequests(c echo.Context) error {
	userID, err := pathID(c, "userId")
	if err != nil {
		return err
	}
	eventID, err := pathID(c, "eventId")
	if err != nil {
		return err
	}

	reqs, err := h.svc.ListRequestsByEvent(c.Request().Context(), userID, eventID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.ToRequestDtos(reqs))
}

// ModerateRequests reports the failing id when a batch stops part way; the
// requests finalized before it remain committed.
func (h *RequestHandler) ModerateRequests(c echo.Context) error {
	userID, err := pathID(c, "userId")
	if err != nil {
		return err
	}
	eventID, err := pathID(c, "eventId")
	if err != nil {
		return err
	}
	var req dto.EventRequestStatusUpdateRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	result, err := h.svc.ModerateRequests(c.Request().Context(), userID, eventID, req.RequestIDs, models.RequestStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.ToStatusUpdateResult(result))
}
