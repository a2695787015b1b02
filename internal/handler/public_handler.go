package handler

import (
	"net/http"

	"github.com/Eursukkul/ewm-service/internal/dto"
	"github.com/Eursukkul/ewm-service/internal/service"
	"github.com/labstack/echo/v4"
)

// PublicHandler serves anonymous reads. Both routes record a hit.
type PublicHandler struct {
	queries service.QueryService
}

func NewPublicHandler(queries service.QueryService) *PublicHandler {
	return &PublicHandler{queries: queries}
}

func (h *PublicHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/events", h.SearchEvents)
	e.GET("/events/:id", h.GetEvent)
}

func visitOf(c echo.Context) service.Visit {
	return service.Visit{URI: c.Request().URL.Path, IP: c.RealIP()}
}

func (h *PublicHandler) SearchEvents(c echo.Context) error {
	categories, err := uintList(c, "categories")
	if err != nil {
		return err
	}
	paid, err := boolParam(c, "paid")
	if err != nil {
		return err
	}
	start, err := dateParam(c, "rangeStart")
	if err != nil {
		return err
	}
	end, err := dateParam(c, "rangeEnd")
	if err != nil {
		return err
	}
	onlyAvailable, err := boolParam(c, "onlyAvailable")
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

	search := service.PublicSearch{
		Text:       c.QueryParam("text"),
		Categories: categories,
		Paid:       paid,
		RangeStart: start,
		RangeEnd:   end,
		Sort:       sort,
		From:       from,
		Size:       size,
	}
	if onlyAvailable != nil {
		search.OnlyAvailable = *onlyAvailable
	}

	events, err := h.queries.SearchEvents(c.Request().Context(), search, visitOf(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.ToEventShortDtos(events))
}

func (h *PublicHandler) GetEvent(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	event, err := h.queries.GetPublishedEvent(c.Request().Context(), id, visitOf(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.ToEventFullDto(event))
}
