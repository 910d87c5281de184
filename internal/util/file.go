package util

import (
	"bytes"
	"io"
	"net/http"
	"path/filepath"
	"strings"
)

// SniffImage 读取文件头判断是否为图片，返回的 reader 仍包含完整内容
func SniffImage(reader io.Reader, filename string) (string, io.Reader, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	allowed := false
	for _, e := range AllowedImageExtensions {
		if e == ext {
			allowed = true
			break
		}
	}
	if !allowed {
		return "", nil, ErrUnsupportedFileType
	}

	buffer := make([]byte, 512)
	n, err := io.ReadFull(reader, buffer)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", nil, err
	}

	mimeType := http.DetectContentType(buffer[:n])
	if !strings.HasPrefix(mimeType, MimeImage) {
		return mimeType, nil, ErrUnsupportedFileType
	}

	return mimeType, io.MultiReader(bytes.NewReader(buffer[:n]), reader), nil
}
