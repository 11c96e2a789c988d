package inttest

import (
	"context"
	"io"
	"testing"

	"github.com/gatherly/gatherly/pkg/storage"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	minioContainer "github.com/testcontainers/testcontainers-go/modules/minio"
)

// SetupMinio creates a MinIO container with given bucket ready to receive uploads.
func SetupMinio(t *testing.T, bucket string) *MinioClient {
	t.Helper()
	ctx := context.Background()

	container, err := minioContainer.Run(ctx, "minio/minio:latest")
	t.Cleanup(func() {
		require.NoError(t, testcontainers.TerminateContainer(container), "failed to terminate MinIO")
	})
	require.NoError(t, err, "failed to start MinIO")

	endpoint, err := container.ConnectionString(ctx)
	require.NoError(t, err, "failed to get MinIO endpoint")

	client, err := storage.NewMinio(endpoint, container.Username, container.Password, false)
	require.NoError(t, err, "failed to create MinIO client")
	require.NoError(t, storage.EnsureBucket(ctx, client, bucket), "failed to create bucket %q", bucket)

	return &MinioClient{Client: client, Endpoint: endpoint, Bucket: bucket}
}

// MinioClient allows reading uploaded objects. Access the actual minio.Client for specific use
// cases where our defaults don't work.
type MinioClient struct {
	Client   *minio.Client
	Endpoint string
	Bucket   string
}

func (mc *MinioClient) GetObject(t *testing.T, key string) []byte {
	t.Helper()

	object, err := mc.Client.GetObject(context.Background(), mc.Bucket, key, minio.GetObjectOptions{})
	errMsg := "failed GET from MinIO bucket %q and key %q"
	require.NoErrorf(t, err, errMsg, mc.Bucket, key)
	defer object.Close()
	body, err := io.ReadAll(object)
	require.NoErrorf(t, err, errMsg+": failed to read body", mc.Bucket, key)
	return body
}
