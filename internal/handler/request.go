package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	apperrors "catalog/internal/errors"
	"catalog/internal/service"
)

// bindJSON decodes the request body into dst. A field of the wrong JSON type
// fails the request with every such field listed.
func bindJSON(c echo.Context, dst interface{}) error {
	malformed, err := decodeBody(c, dst)
	if err != nil {
		return err
	}
	if !malformed.Empty() {
		return apperrors.EchoError(malformed)
	}
	return nil
}

// decodeBody decodes the request body into the struct dst one field at a
// time. Fields whose JSON value has the wrong type are left unset and
// reported in the returned ValidationError so the caller can validate the
// rest of the body alongside them. The error is set only when the body is
// not a JSON object at all.
func decodeBody(c echo.Context, dst interface{}) (*apperrors.ValidationError, error) {
	var raw map[string]json.RawMessage
	if err := (&echo.DefaultBinder{}).BindBody(c, &raw); err != nil {
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) && httpErr.Code == http.StatusUnsupportedMediaType {
			return nil, echo.NewHTTPError(http.StatusUnsupportedMediaType, apperrors.ErrorResponse{
				Detail: "Unsupported media type in request.",
				Code:   "unsupported_media_type",
			}).SetInternal(err)
		}
		return nil, echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
			Detail: "JSON parse error.",
			Code:   "parse_error",
		}).SetInternal(err)
	}

	malformed := apperrors.NewValidationError()
	v := reflect.ValueOf(dst).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		name := jsonName(t.Field(i))
		value, ok := raw[name]
		if name == "" || !ok {
			continue
		}
		err := json.Unmarshal(value, v.Field(i).Addr().Interface())
		if err == nil {
			continue
		}
		var fieldErr *apperrors.ValidationError
		if errors.As(err, &fieldErr) {
			malformed.Merge(fieldErr)
			continue
		}
		v.Field(i).Set(reflect.Zero(t.Field(i).Type))
		malformed.Add(name, typeMessage(t.Field(i).Type))
	}
	return malformed, nil
}

func jsonName(f reflect.StructField) string {
	if !f.IsExported() {
		return ""
	}
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

func typeMessage(t reflect.Type) string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "A valid integer is required."
	case reflect.Float32, reflect.Float64:
		return "A valid number is required."
	case reflect.String:
		return "Not a valid string."
	default:
		return "Invalid value."
	}
}

// parseID reads the {id} path parameter. Anything that is not a positive
// integer cannot name a record.
func parseID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.EchoError(apperrors.ErrNotFound)
	}
	return uint(id), nil
}

// Pagination resolves page query parameters against the configured limits.
type Pagination struct {
	DefaultSize int
	MaxSize     int
}

// request reads page and page_size. A bad page is an error; a bad page_size
// falls back to the default and an oversized one is capped.
func (p Pagination) request(c echo.Context) (service.PageRequest, error) {
	req := service.PageRequest{Page: 1, PageSize: p.DefaultSize}
	if raw := c.QueryParam("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return req, apperrors.EchoError(apperrors.ErrInvalidPage)
		}
		req.Page = page
	}
	if raw := c.QueryParam("page_size"); raw != "" {
		if size, err := strconv.Atoi(raw); err == nil && size > 0 {
			req.PageSize = size
		}
	}
	if p.MaxSize > 0 && req.PageSize > p.MaxSize {
		req.PageSize = p.MaxSize
	}
	if req.PageSize < 1 {
		req.PageSize = 1
	}
	return req, nil
}

// Price accepts a JSON number or a numeric string.
type Price struct {
	Value *decimal.Decimal
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Price) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		p.Value = nil
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return apperrors.FieldError("price", "A valid number is required.")
		}
		raw = strings.TrimSpace(s)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return apperrors.FieldError("price", "A valid number is required.")
	}
	p.Value = &d
	return nil
}
