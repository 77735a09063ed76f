package blob

import (
	"context"
	"fmt"
	"os"
)

// Open selects an ObjectStore implementation using environment variables.
//
//	FUNDREVIEW_BLOB_DRIVER: fs|s3|memory (default fs)
//	FUNDREVIEW_BLOB_FS_ROOT: directory root when driver=fs (default ./exportdata)
//	(S3 specific variables documented in s3.go)
func Open(ctx context.Context) (ObjectStore, error) {
	driver := os.Getenv("FUNDREVIEW_BLOB_DRIVER")
	if driver == "" {
		driver = string(DriverFilesystem)
	}
	switch Driver(driver) {
	case DriverFilesystem:
		root := os.Getenv("FUNDREVIEW_BLOB_FS_ROOT")
		return NewFilesystem(root)
	case DriverS3:
		return OpenS3FromEnv(ctx)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}
