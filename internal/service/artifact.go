package service

import (
	"context"
	"io"
	"mime/multipart"

	"github.com/gabriel-vasile/mimetype"

	"github.com/edulearn-io/edulearn-go-api/internal/apperr"
)

// FileUploader stores artifact bytes in the external file store and returns a
// stable reference URL. The workflow only ever records the reference plus
// name, media type and size.
type FileUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

type artifact struct {
	URL  string
	Name string
	Type string
	Size int64
}

var allowedArtifactTypes = []string{
	"application/pdf",
	"application/zip",
	"application/x-zip-compressed",
	"text/plain",
}

// storeArtifact validates the uploaded file by content sniffing and hands the
// bytes to the external store.
func storeArtifact(ctx context.Context, uploader FileUploader, file *multipart.FileHeader) (artifact, error) {
	if file == nil || file.Size == 0 {
		return artifact{}, apperr.Validation("a solution file is required")
	}

	detected, err := detectArtifactType(file)
	if err != nil {
		return artifact{}, err
	}

	reader, err := file.Open()
	if err != nil {
		return artifact{}, apperr.Wrap(apperr.KindValidation, "failed to open uploaded file", err)
	}
	defer reader.Close()

	url, err := uploader.Upload(ctx, file.Filename, reader)
	if err != nil {
		return artifact{}, err
	}

	return artifact{
		URL:  url,
		Name: file.Filename,
		Type: detected,
		Size: file.Size,
	}, nil
}

func detectArtifactType(file *multipart.FileHeader) (string, error) {
	reader, err := file.Open()
	if err != nil {
		return "", apperr.Wrap(apperr.KindValidation, "failed to open uploaded file", err)
	}
	defer reader.Close()

	mime, err := mimetype.DetectReader(reader)
	if err != nil {
		return "", apperr.Wrap(apperr.KindValidation, "failed to detect file type", err)
	}

	for _, allowed := range allowedArtifactTypes {
		if mime.Is(allowed) {
			return mime.String(), nil
		}
	}

	return "", apperr.Newf(apperr.KindValidation, "unsupported file type: %s", mime.String())
}
