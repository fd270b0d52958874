package handler

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"

	"convert-gateway/service"
)

const fileField = "file"

// readFilePart advances the multipart stream to the "file" part and returns it
// with the client's filename exactly as sent. A "file" field sent without a
// filename parameter is a plain form value and is skipped.
func readFilePart(r *http.Request) (*multipart.Part, string, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", service.ErrMissingFile, err)
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, "", service.ErrMissingFile
		}
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return nil, "", fmt.Errorf("%w: %v", service.ErrFileTooLarge, err)
			}
			return nil, "", fmt.Errorf("%w: %v", service.ErrMissingFile, err)
		}

		if part.FormName() == fileField {
			if name, ok := rawFilename(part); ok {
				return part, name, nil
			}
		}
		_ = part.Close()
	}
}

// rawFilename reads the filename parameter without Part.FileName's
// filepath.Base, so the response can echo what the client sent.
func rawFilename(p *multipart.Part) (string, bool) {
	_, params, err := mime.ParseMediaType(p.Header.Get("Content-Disposition"))
	if err != nil {
		return "", false
	}
	name, ok := params["filename"]
	return name, ok
}
