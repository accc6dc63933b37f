package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/bartek5186/ulvari-mrp/internal/importer"
	"github.com/bartek5186/ulvari-mrp/internal/mrp"
	"github.com/bartek5186/ulvari-mrp/internal/worksheet"
	"github.com/gin-gonic/gin"
)

// Response to wspólna koperta odpowiedzi; Code = HTTP status * 100 (+ wariant), 0 = OK.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Code: 0, Message: "success", Data: data})
}

func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Response{Code: 0, Message: "success", Data: data})
}

func Error(c *gin.Context, code int, message string) {
	status := code / 100
	if status < 100 || status > 599 {
		status = http.StatusInternalServerError
	}
	c.JSON(status, Response{Code: code, Message: message})
}

func BadRequest(c *gin.Context, message string) { Error(c, 40000, message) }
func NotFound(c *gin.Context, message string) { Error(c, 40400, message) }

// Fail mapuje błędy domenowe na kody HTTP.
func Fail(c *gin.Context, err error) { FailWith(c, err, nil) }

// FailWith jak Fail, ale dokłada extra do pola data (np. liczbę wykonanych przebiegów).
func FailWith(c *gin.Context, err error, extra gin.H) {
	code, data := 50000, gin.H{}
	var short *mrp.InsufficientStockError
	switch {
	case errors.Is(err, mrp.ErrNotFound):
		code = 40400
	case errors.As(err, &short):
		code = 40901
		data = gin.H{
			"material_id":   short.MaterialID,
			"material_name": short.Material(),
			"required":      short.Required,
			"available":     short.Available,
		}
	case errors.Is(err, mrp.ErrDuplicateName):
		code = 40900
	case errors.Is(err, mrp.ErrInvalidQuantity),
		errors.Is(err, mrp.ErrInvalidInput),
		errors.Is(err, mrp.ErrInvalidField),
		errors.Is(err, mrp.ErrInvalidStatus),
		errors.Is(err, worksheet.ErrUnknownFormat),
		errors.Is(err, importer.ErrBadLine):
		code = 40000
	}
	for k, v := range extra {
		data[k] = v
	}
	resp := Response{Code: code, Message: err.Error()}
	if len(data) > 0 {
		resp.Data = data
	}
	c.JSON(code/100, resp)
}

// paramID czyta dodatni identyfikator z parametru ścieżki; przy błędzie odpowiada 400.
func paramID(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		BadRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(v), true
}

func queryInt(c *gin.Context, name string, def int) int {
	if v, err := strconv.Atoi(c.Query(name)); err == nil {
		return v
	}
	return def
}
