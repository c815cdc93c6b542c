package contracts

import "context"

type Storage interface {
	UploadObject(ctx context.Context, bucketName, objectName string, content []byte, contentType string) (string, error)
}
