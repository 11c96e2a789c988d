package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gatherly/gatherly/internal/errdef"
	"github.com/gatherly/gatherly/internal/handler"
	"github.com/gatherly/gatherly/pkg/model"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestContext(t *testing.T, user *model.User, method, path, body string) (*gin.Context, *httptest.ResponseRecorder) {
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Set("user", user)
	var request *http.Request
	if body == "" {
		request = httptest.NewRequest(method, path, nil)
	} else {
		request = httptest.NewRequest(method, path, strings.NewReader(body))
		request.Header.Set("Content-Type", "application/json")
	}
	c.Request = request
	return c, recorder
}

func TestHandler_Send(t *testing.T) {
	require.NoError(t, handler.RegisterValidation())
	fixture := newRelayFixture()
	h := NewHandler(fixture.relay)
	user := &model.User{ID: primitive.NewObjectID()}
	receiver := primitive.NewObjectID()

	c, recorder := newTestContext(t, user, http.MethodPost, "/chat/messages", `{"receiver": "`+receiver.Hex()+`", "message": "hello"}`)

	h.Send(c)

	require.Empty(t, c.Errors)
	assert.Equal(t, http.StatusCreated, recorder.Code)
	var body struct {
		Success bool          `json:"success"`
		Message model.Message `json:"message"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, user.ID, body.Message.Sender)
	assert.Equal(t, receiver, body.Message.Receiver)
	assert.Equal(t, "hello", body.Message.Message)
}

func TestHandler_Send_InvalidReceiver(t *testing.T) {
	require.NoError(t, handler.RegisterValidation())
	fixture := newRelayFixture()
	h := NewHandler(fixture.relay)

	c, _ := newTestContext(t, &model.User{ID: primitive.NewObjectID()}, http.MethodPost, "/chat/messages", `{"receiver": "nope", "message": "hello"}`)

	h.Send(c)

	require.Len(t, c.Errors, 1)
	assert.True(t, errdef.IsBadRequest(c.Errors.Last()))
	assert.Empty(t, fixture.repository.messages)
}

func TestHandler_History(t *testing.T) {
	fixture := newRelayFixture()
	h := NewHandler(fixture.relay)
	user := &model.User{ID: primitive.NewObjectID()}
	other := primitive.NewObjectID()
	_, err := fixture.relay.Send(context.Background(), other.Hex(), user.ID.Hex(), "ping")
	require.NoError(t, err)

	c, recorder := newTestContext(t, user, http.MethodGet, "/chat/messages/"+other.Hex(), "")
	c.AddParam("userId", other.Hex())

	h.History(c)

	require.Empty(t, c.Errors)
	var body struct {
		Messages []model.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	require.Len(t, body.Messages, 1)
	assert.True(t, body.Messages[0].Read)
}

func TestHandler_History_InvalidUserID(t *testing.T) {
	h := NewHandler(newRelayFixture().relay)

	c, _ := newTestContext(t, &model.User{ID: primitive.NewObjectID()}, http.MethodGet, "/chat/messages/nope", "")
	c.AddParam("userId", "nope")

	h.History(c)

	require.Len(t, c.Errors, 1)
	assert.True(t, errdef.IsBadRequest(c.Errors.Last()))
}

func TestHandler_MarkRead(t *testing.T) {
	require.NoError(t, handler.RegisterValidation())
	fixture := newRelayFixture()
	h := NewHandler(fixture.relay)
	user := &model.User{ID: primitive.NewObjectID()}
	message, err := fixture.relay.Send(context.Background(), primitive.NewObjectID().Hex(), user.ID.Hex(), "ping")
	require.NoError(t, err)

	c, recorder := newTestContext(t, user, http.MethodPut, "/chat/messages/read", `{"messageIds": ["`+message.ID.Hex()+`"]}`)

	h.MarkRead(c)

	require.Empty(t, c.Errors)
	assert.JSONEq(t, `{"success": true, "modifiedCount": 1}`, recorder.Body.String())
}

func TestHandler_Delete_NotSender(t *testing.T) {
	fixture := newRelayFixture()
	h := NewHandler(fixture.relay)
	user := &model.User{ID: primitive.NewObjectID()}
	message, err := fixture.relay.Send(context.Background(), primitive.NewObjectID().Hex(), user.ID.Hex(), "ping")
	require.NoError(t, err)

	c, _ := newTestContext(t, user, http.MethodDelete, "/chat/messages/"+message.ID.Hex(), "")
	c.AddParam("id", message.ID.Hex())

	h.Delete(c)

	require.Len(t, c.Errors, 1)
	assert.True(t, errdef.IsForbidden(c.Errors.Last()))
}

func TestHandler_UnreadCount(t *testing.T) {
	fixture := newRelayFixture()
	h := NewHandler(fixture.relay)
	user := &model.User{ID: primitive.NewObjectID()}
	for range 3 {
		_, err := fixture.relay.Send(context.Background(), primitive.NewObjectID().Hex(), user.ID.Hex(), "ping")
		require.NoError(t, err)
	}

	c, recorder := newTestContext(t, user, http.MethodGet, "/chat/unread-count", "")

	h.UnreadCount(c)

	require.Empty(t, c.Errors)
	assert.JSONEq(t, `{"success": true, "count": 3}`, recorder.Body.String())
}

func TestHandler_Online(t *testing.T) {
	fixture := newRelayFixture()
	fixture.registry.Register("65f1c0ffee0000000000abcd", "connection-1")
	h := NewHandler(fixture.relay)

	c, recorder := newTestContext(t, &model.User{ID: primitive.NewObjectID()}, http.MethodGet, "/chat/online", "")

	h.Online(c)

	assert.JSONEq(t, `{"success": true, "users": ["65f1c0ffee0000000000abcd"]}`, recorder.Body.String())
}
