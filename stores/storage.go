package stores

import (
	"os"

	"marker-mind/core"
	"marker-mind/stores/aws"
	"marker-mind/stores/filesystem"
	"marker-mind/stores/memory"
	"marker-mind/stores/sqlite"

	"github.com/sirupsen/logrus"
)

// GetStore builds the board store selected by STORAGE_TYPE.
func GetStore() core.BoardStore {
	storageType := os.Getenv("STORAGE_TYPE")
	var store core.BoardStore

	storageField := logrus.Fields{
		"storageType": storageType,
	}

	switch storageType {
	case "filesystem":
		basePath := os.Getenv("LOCAL_STORAGE_PATH")
		if basePath == "" {
			basePath = "./data" // Default path
		}
		storageField["basePath"] = basePath
		store = filesystem.NewStore(basePath)
	case "sqlite":
		dataSourceName := os.Getenv("DATA_SOURCE_NAME")
		if dataSourceName == "" {
			dataSourceName = "marker-mind.db" // Default filename
		}
		storageField["dataSourceName"] = dataSourceName
		storageField["cgo"] = sqlite.CGOEnabled
		store = sqlite.NewStore(dataSourceName)
	case "s3":
		bucketName := os.Getenv("S3_BUCKET_NAME")
		if bucketName == "" {
			logrus.Fatal("S3_BUCKET_NAME environment variable must be set for s3 storage type")
		}
		storageField["bucketName"] = bucketName
		store = aws.NewStore(bucketName)
	default:
		store = memory.NewStore()
		storageField["storageType"] = "in-memory"
	}
	logrus.WithFields(storageField).Info("Use storage")
	return store
}
