package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/Eursukkul/ewm-service/internal/apperr"
	"github.com/Eursukkul/ewm-service/internal/dto"
	"github.com/labstack/echo/v4"
)

const defaultPageSize = 10

func pathID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validation(name, c.Param(name), "must be a positive integer")
	}
	return uint(id), nil
}

func queryID(c echo.Context, name string) (uint, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, apperr.Validation(name, nil, "is required")
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validation(name, raw, "must be a positive integer")
	}
	return uint(id), nil
}

// page reads from/size with defaults 0 and 10.
func page(c echo.Context) (from, size int, err error) {
	from, size = 0, defaultPageSize
	if err := echo.QueryParamsBinder(c).Int("from", &from).Int("size", &size).BindError(); err != nil {
		return 0, 0, apperr.Validation("from/size", nil, "must be integers")
	}
	if from < 0 {
		return 0, 0, apperr.Validation("from", from, "must not be negative")
	}
	if size <= 0 {
		return 0, 0, apperr.Validation("size", size, "must be positive")
	}
	return from, size, nil
}

// listParam accepts both repeated (?a=1&a=2) and comma separated (?a=1,2) lists.
func listParam(c echo.Context, name string) []string {
	var out []string
	for _, v := range c.QueryParams()[name] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func uintList(c echo.Context, name string) ([]uint, error) {
	raw := listParam(c, name)
	ids := make([]uint, 0, len(raw))
	for _, s := range raw {
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return nil, apperr.Validation(name, s, "must be a list of integers")
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

func dateParam(c echo.Context, name string) (*time.Time, error) {
	t, err := dto.ParseDateTime(c.QueryParam(name))
	if err != nil {
		return nil, apperr.Validation(name, c.QueryParam(name), "must use the format yyyy-MM-dd HH:mm:ss")
	}
	return t, nil
}

func boolParam(c echo.Context, name string) (*bool, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperr.Validation(name, raw, "must be true or false")
	}
	return &b, nil
}

// bindBody binds and validates a JSON body.
func bindBody(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return apperr.Validation("body", nil, "malformed request body: %v", bindMessage(err))
	}
	return c.Validate(dst)
}

func bindMessage(err error) any {
	if he, ok := err.(*echo.HTTPError); ok {
		if he.Internal != nil {
			return he.Internal
		}
		return he.Message
	}
	return err
}
