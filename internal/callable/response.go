package callable

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ErrorBody is the JSON shape of a failed callable response
type ErrorBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Request wraps callable input as {"data": ...}
type Request[T any] struct {
	Data T `json:"data"`
}

// WriteResult writes {"result": result}
func WriteResult(c echo.Context, result interface{}) error {
	return c.JSON(http.StatusOK, echo.Map{"result": result})
}

// WriteError writes {"error": {"status", "message"}} with the kind's HTTP status
func WriteError(c echo.Context, err error) error {
	ce := FromError(err)
	return c.JSON(ce.Kind.HTTPStatus(), echo.Map{
		"error": ErrorBody{Status: ce.Kind.Status(), Message: ce.Message},
	})
}
