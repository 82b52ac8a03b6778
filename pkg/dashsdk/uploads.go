package dashsdk

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// File is one part of a multipart upload.
type File struct {
	Name    string
	Content io.Reader
}

// UploadImage posts one image as field "image" to /upload.
func (c *SDKClient) UploadImage(ctx context.Context, file File) (*ImageRef, error) {
	var out resultEnvelope[*ImageRef]
	if err := c.upload(ctx, "/upload", "image", []File{file}, &out); err != nil {
		return nil, err
	}
	return out.Result, nil
}

// BulkUpload posts images as repeated field "images" to /bulk-upload.
func (c *SDKClient) BulkUpload(ctx context.Context, files []File) ([]ImageRef, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no files to upload")
	}

	var out resultEnvelope[[]ImageRef]
	if err := c.upload(ctx, "/bulk-upload", "images", files, &out); err != nil {
		return nil, err
	}
	return out.Result, nil
}

// upload buffers the multipart body so it can be replayed after a refresh.
func (c *SDKClient) upload(ctx context.Context, path, field string, files []File, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for _, f := range files {
		part, err := mw.CreateFormFile(field, f.Name)
		if err != nil {
			return fmt.Errorf("failed to create form file: %w", err)
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return fmt.Errorf("failed to write form file: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to close multipart body: %w", err)
	}

	resp, err := c.doAuth(ctx, http.MethodPost, path, bytes.NewReader(buf.Bytes()), mw.FormDataContentType())
	if err != nil {
		return err
	}
	return decodeJSON(resp, out)
}
