package assets

import (
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"directory-backend/internal/apperr"

	"github.com/gabriel-vasile/mimetype"
)

var allowedExt = map[string]string{
	"jpeg": "image/jpeg",
	"jpg":  "image/jpeg",
	"png":  "image/png",
}

// Upload is a client file independent of the transport.
type Upload struct {
	Filename string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

func FromFileHeader(fh *multipart.FileHeader) Upload {
	return Upload{
		Filename: fh.Filename,
		Size:     fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

func FromFileHeaders(fhs []*multipart.FileHeader) []Upload {
	out := make([]Upload, 0, len(fhs))
	for _, fh := range fhs {
		out = append(out, FromFileHeader(fh))
	}
	return out
}

// Validate reads the upload and checks extension, size and sniffed type.
// It returns the bytes and the lower-case extension.
func Validate(up Upload, maxBytes int64) ([]byte, string, error) {
	fields := apperr.Fields{}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(up.Filename)), ".")

	wantMime, ok := allowedExt[ext]
	if !ok {
		fields.Add("image", "The image must be a file of type: jpeg, png, jpg.")
		return nil, "", apperr.Validation(fields)
	}
	if up.Size > maxBytes {
		fields.Add("image", fmt.Sprintf("The image may not be greater than %d kilobytes.", maxBytes/1024))
		return nil, "", apperr.Validation(fields)
	}
	if up.Open == nil {
		fields.Add("image", "The image failed to upload.")
		return nil, "", apperr.Validation(fields)
	}

	rc, err := up.Open()
	if err != nil {
		fields.Add("image", "The image failed to upload.")
		return nil, "", apperr.Validation(fields)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxBytes+1))
	if err != nil {
		fields.Add("image", "The image failed to upload.")
		return nil, "", apperr.Validation(fields)
	}
	if int64(len(data)) > maxBytes {
		fields.Add("image", fmt.Sprintf("The image may not be greater than %d kilobytes.", maxBytes/1024))
		return nil, "", apperr.Validation(fields)
	}

	if mt := mimetype.Detect(data); !mt.Is(wantMime) {
		fields.Add("image", "The image must be an image.")
		return nil, "", apperr.Validation(fields)
	}
	return data, ext, nil
}
