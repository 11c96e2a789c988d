package upload

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gatherly/gatherly/internal/errdef"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// extensions of the accepted image types
var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

//goland:noinspection GoExportedFuncWithUnexportedType
func NewService(client objectStore, bucket string, maxBytes int64, objectURL func(key string) string) *Service {
	return &Service{
		client:    client,
		bucket:    bucket,
		maxBytes:  maxBytes,
		objectURL: objectURL,
	}
}

type objectStore interface {
	PutObject(ctx context.Context, bucket string, name string, reader io.Reader, size int64, options minio.PutObjectOptions) (minio.UploadInfo, error)
}

type Service struct {
	client    objectStore
	bucket    string
	maxBytes  int64
	objectURL func(key string) string
}

// Save stores the image read from file under a key owned by userID and returns its URL. The content
// type is sniffed from the content, whatever the client claims.
func (s Service) Save(ctx context.Context, userID primitive.ObjectID, file io.ReadSeeker, size int64) (string, error) {
	if size <= 0 {
		return "", errdef.NewBadRequest("file is empty")
	}
	if size > s.maxBytes {
		return "", errdef.NewBadRequest("file exceeds the limit of %d bytes", s.maxBytes)
	}

	contentType, err := sniff(file)
	if err != nil {
		return "", err
	}
	extension, ok := extensions[contentType]
	if !ok {
		return "", errdef.NewUnsupportedMediaType("only images can be uploaded, got %q", contentType)
	}

	key := fmt.Sprintf("%s/%s%s", userID.Hex(), uuid.NewString(), extension)
	_, err = s.client.PutObject(ctx, s.bucket, key, file, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("error uploading %q: %v", key, err)
	}

	return s.objectURL(key), nil
}

func sniff(file io.ReadSeeker) (string, error) {
	buffer := make([]byte, 512)
	n, err := io.ReadFull(file, buffer)
	if err != nil && err != io.ErrUnexpectedEOF {
		return "", fmt.Errorf("error reading upload: %v", err)
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("error rewinding upload: %v", err)
	}

	contentType, _, _ := strings.Cut(http.DetectContentType(buffer[:n]), ";")
	return contentType, nil
}
