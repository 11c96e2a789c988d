package upload

import (
	"bytes"
	"context"
	"errors"
	"io"
	"regexp"
	"testing"

	"github.com/gatherly/gatherly/internal/errdef"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var png = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

func objectURL(key string) string {
	return "http://localhost:9000/uploads/" + key
}

func TestService_Save(t *testing.T) {
	userID := primitive.NewObjectID()
	keyPattern := regexp.MustCompile(`^` + userID.Hex() + `/[0-9a-f-]{36}\.png$`)
	store := &mockObjectStore{}
	store.
		On("PutObject", "uploads", mock.MatchedBy(keyPattern.MatchString), int64(len(png)), minio.PutObjectOptions{ContentType: "image/png"}).
		Return(minio.UploadInfo{}, nil)
	service := NewService(store, "uploads", 1024, objectURL)

	url, err := service.Save(context.Background(), userID, bytes.NewReader(png), int64(len(png)))

	require.NoError(t, err)
	assert.Regexp(t, `^http://localhost:9000/uploads/`+userID.Hex()+`/[0-9a-f-]{36}\.png$`, url)
	store.AssertExpectations(t)
	assert.Equal(t, png, store.uploaded)
}

func TestService_Save_Rejected(t *testing.T) {
	tests := map[string]struct {
		content []byte
		size    int64
		isError func(error) bool
	}{
		"Empty": {
			content: nil,
			size:    0,
			isError: errdef.IsBadRequest,
		},
		"TooLarge": {
			content: png,
			size:    2048,
			isError: errdef.IsBadRequest,
		},
		"NotAnImage": {
			content: []byte("just some text, definitely not an image"),
			size:    39,
			isError: errdef.IsUnsupportedMediaType,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			store := &mockObjectStore{}
			service := NewService(store, "uploads", 1024, objectURL)

			_, err := service.Save(context.Background(), primitive.NewObjectID(), bytes.NewReader(test.content), test.size)

			require.Error(t, err)
			assert.True(t, test.isError(err))
			store.AssertNotCalled(t, "PutObject")
		})
	}
}

func TestService_Save_StoreError(t *testing.T) {
	store := &mockObjectStore{}
	store.
		On("PutObject", "uploads", mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, errors.New("connection refused"))
	service := NewService(store, "uploads", 1024, objectURL)

	_, err := service.Save(context.Background(), primitive.NewObjectID(), bytes.NewReader(png), int64(len(png)))

	require.Error(t, err)
	assert.False(t, errdef.IsBadRequest(err))
	assert.Contains(t, err.Error(), "connection refused")
}

type mockObjectStore struct {
	mock.Mock
	uploaded []byte
}

func (m *mockObjectStore) PutObject(ctx context.Context, bucket string, name string, reader io.Reader, size int64, options minio.PutObjectOptions) (minio.UploadInfo, error) {
	called := m.Called(bucket, name, size, options)
	m.uploaded, _ = io.ReadAll(reader)
	return called.Get(0).(minio.UploadInfo), called.Error(1)
}
