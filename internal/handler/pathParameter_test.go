package handler

import (
	"net/http/httptest"
	"testing"

	"github.com/gatherly/gatherly/internal/errdef"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestGetObjectIDParameter(t *testing.T) {
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	expected := primitive.NewObjectID()
	ctx.AddParam("id", expected.Hex())

	id, ok := GetObjectIDParameter(ctx, "id")

	assert.True(t, ok)
	assert.Equal(t, expected, id)
	assert.Empty(t, ctx.Errors)
}

func TestGetObjectIDParameter_Invalid(t *testing.T) {
	tests := map[string]string{
		"Missing": "",
		"NotHex":  "123",
	}

	for name, value := range tests {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			ctx, _ := gin.CreateTestContext(w)
			if value != "" {
				ctx.AddParam("id", value)
			}

			id, ok := GetObjectIDParameter(ctx, "id")

			assert.False(t, ok)
			assert.Equal(t, primitive.NilObjectID, id)
			require.Len(t, ctx.Errors, 1)
			assert.True(t, errdef.IsBadRequest(ctx.Errors.Last()))
		})
	}
}
