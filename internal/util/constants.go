package util

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

const MimeImage = "image/"

var AllowedImageExtensions = []string{".jpg", ".jpeg", ".png", ".webp"}
