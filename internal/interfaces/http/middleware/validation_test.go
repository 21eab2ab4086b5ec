package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travelagency/backoffice/internal/interfaces/http/dto"
)

type bindInput struct {
	ServiceID string          `json:"service_id" binding:"required"`
	Index     *int            `json:"index" binding:"required,min=0"`
	Items     []string        `json:"items" binding:"required,min=1"`
	Amount    decimal.Decimal `json:"amount"`
}

func newBindRouter(limit int64) *gin.Engine {
	SetupValidator()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	if limit > 0 {
		router.Use(BodyLimit(limit))
	}
	router.POST("/test", func(c *gin.Context) {
		var in bindInput
		if err := c.ShouldBindJSON(&in); err != nil {
			HandleBindError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.NewSuccessResponse(in.ServiceID))
	})
	return router
}

func postJSON(router http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSetupValidator(t *testing.T) {
	SetupValidator()

	v, ok := binding.Validator.Engine().(*validator.Validate)
	assert.True(t, ok)
	assert.NotNil(t, v)
}

func TestHandleBindError(t *testing.T) {
	t.Run("valid input passes", func(t *testing.T) {
		w := postJSON(newBindRouter(0), `{"service_id":"svc-1","index":0,"items":["a"],"amount":"10.50"}`)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("field errors use json names", func(t *testing.T) {
		w := postJSON(newBindRouter(0), `{"index":-1,"items":[]}`)
		require.Equal(t, http.StatusBadRequest, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)

		fields := map[string]string{}
		for _, d := range resp.Error.Details {
			fields[d.Field] = d.Message
		}
		assert.Equal(t, "This field is required", fields["service_id"])
		assert.Equal(t, "Must be at least 0", fields["index"])
		assert.Equal(t, "Must contain at least 1 items", fields["items"])
	})

	t.Run("malformed json", func(t *testing.T) {
		w := postJSON(newBindRouter(0), `{"service_id":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), dto.ErrCodeInvalidJSON)
	})

	t.Run("oversized streamed body", func(t *testing.T) {
		router := newBindRouter(32)
		req := httptest.NewRequest(http.MethodPost, "/test",
			strings.NewReader(`{"service_id":"`+strings.Repeat("x", 100)+`"}`))
		req.Header.Set("Content-Type", "application/json")
		req.ContentLength = -1
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Contains(t, w.Body.String(), dto.ErrCodeRequestTooLarge)
	})
}
