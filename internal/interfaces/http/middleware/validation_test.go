package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wims/backend/internal/interfaces/http/dto"
)

type lineInput struct {
	Quantity int64 `json:"quantity" binding:"required,min=1"`
}

type orderInput struct {
	CustomerID string      `json:"customer_id" binding:"required,uuid"`
	Terminal   string      `json:"pos_terminal_id" binding:"max=5"`
	Items      []lineInput `json:"items" binding:"required,min=1,dive"`
}

func TestHandleValidationError(t *testing.T) {
	SetupValidator()

	r := gin.New()
	r.Use(RequestID())
	r.POST("/orders", func(c *gin.Context) {
		var in orderInput
		if err := c.ShouldBindJSON(&in); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusCreated)
	})

	body := `{"customer_id":"nope","pos_terminal_id":"TERMINAL-9","items":[{"quantity":0}]}`
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := serve(r, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.NotEmpty(t, resp.Error.RequestID)

	byField := map[string]dto.FieldDetail{}
	for _, f := range resp.Error.Fields {
		byField[f.Field] = f
	}
	assert.Equal(t, "Invalid UUID format", byField["customer_id"].Message)
	assert.Equal(t, dto.ErrCodeValidationLength, byField["pos_terminal_id"].Code)
	assert.Equal(t, dto.ErrCodeValidationRequired, byField["items[0].quantity"].Code)
}

func TestValidationFields_NotValidatorError(t *testing.T) {
	assert.Nil(t, ValidationFields(assert.AnError))
}

func TestValidationFields_Messages(t *testing.T) {
	type adjustInput struct {
		Delta    int64    `json:"delta" binding:"gte=-1000,lte=1000"`
		Reason   string   `json:"reason" binding:"min=3"`
		Type     string   `json:"type" binding:"oneof=INBOUND OUTBOUND"`
		Barcode  string   `json:"barcode" binding:"len=13"`
		Lines    []string `json:"lines" binding:"max=1"`
		Priority int      `json:"priority" binding:"gt=0"`
	}
	SetupValidator()

	err := binding.Validator.ValidateStruct(&adjustInput{
		Delta:   5000,
		Reason:  "x",
		Type:    "TRANSFER",
		Barcode: "123",
		Lines:   []string{"a", "b"},
	})
	require.Error(t, err)

	got := map[string]dto.FieldDetail{}
	for _, f := range ValidationFields(err) {
		got[f.Field] = f
	}
	assert.Equal(t, "Must be less than or equal to 1000", got["delta"].Message)
	assert.Equal(t, dto.ErrCodeValidationRange, got["delta"].Code)
	assert.Equal(t, "Must be at least 3 characters", got["reason"].Message)
	assert.Equal(t, dto.ErrCodeValidationLength, got["reason"].Code)
	assert.Equal(t, "Must be one of: INBOUND OUTBOUND", got["type"].Message)
	assert.Equal(t, dto.ErrCodeValidationFormat, got["type"].Code)
	assert.Equal(t, "Must be exactly 13 characters", got["barcode"].Message)
	assert.Equal(t, "Must contain at most 1 item(s)", got["lines"].Message)
	assert.Equal(t, "Must be greater than 0", got["priority"].Message)
}
