package http

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/dewataksu/dashboard/internal/dashboard/domain"
	"github.com/dewataksu/dashboard/internal/dashboard/service"
	"github.com/dewataksu/dashboard/pkg/dashsdk"
	"github.com/dewataksu/dashboard/pkg/httpx"
	"github.com/dewataksu/dashboard/pkg/slogx"
)

// maxUploadMemory bounds how much of a multipart form is kept in memory;
// larger parts spill to temporary files.
const maxUploadMemory = 32 << 20

// UploadResponse carries the uploaded image references.
type UploadResponse struct {
	Images       []dashsdk.ImageRef   `json:"images"`
	Notification *domain.Notification `json:"notification,omitempty"`
}

type UploadsHandler struct {
	NotificationService *service.NotificationService
}

// Upload handles POST /dashboard/uploads
//
//	@Summary		Upload an image
//	@Description	Forwards the "image" part to the backend and returns the stored reference.
//	@Tags			Uploads
//	@Accept			mpfd
//	@Produce		json
//	@Param			image	formData	file	true	"Image"
//	@Success		201		{object}	UploadResponse
//	@Failure		400		{object}	httpx.ErrorBody
//	@Router			/dashboard/uploads [post].
func (h *UploadsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	headers, ok := formFiles(w, r, "image")
	if !ok {
		return
	}

	files, closeAll, err := openFiles(headers[:1])
	if err != nil {
		slogx.FromContext(r.Context()).Error("failed to read upload", "error", err)
		httpx.WriteError(w, http.StatusBadRequest, "invalid upload")
		return
	}
	defer closeAll()

	var ref *dashsdk.ImageRef
	n, err := track(r, h.NotificationService, domain.KindUpload, "image", files[0].Name,
		func(ctx context.Context) (err error) {
			ref, err = clientFrom(r).UploadImage(ctx, files[0])
			return err
		})
	if err != nil {
		writeSDKError(w, r, err)
		return
	}

	resp := UploadResponse{Images: []dashsdk.ImageRef{}, Notification: n}
	if ref != nil {
		resp.Images = append(resp.Images, *ref)
	}
	httpx.WriteJSON(w, http.StatusCreated, resp)
}

// BulkUpload handles POST /dashboard/uploads/bulk
//
//	@Summary		Upload several images
//	@Description	Forwards every "images" part to the backend in one request.
//	@Tags			Uploads
//	@Accept			mpfd
//	@Produce		json
//	@Param			images	formData	[]file	true	"Images"
//	@Success		201		{object}	UploadResponse
//	@Failure		400		{object}	httpx.ErrorBody
//	@Router			/dashboard/uploads/bulk [post].
func (h *UploadsHandler) BulkUpload(w http.ResponseWriter, r *http.Request) {
	headers, ok := formFiles(w, r, "images")
	if !ok {
		return
	}

	files, closeAll, err := openFiles(headers)
	if err != nil {
		slogx.FromContext(r.Context()).Error("failed to read upload", "error", err)
		httpx.WriteError(w, http.StatusBadRequest, "invalid upload")
		return
	}
	defer closeAll()

	var refs []dashsdk.ImageRef
	label := fmt.Sprintf("%d images", len(files))
	n, err := track(r, h.NotificationService, domain.KindUpload, "image", label,
		func(ctx context.Context) (err error) {
			refs, err = clientFrom(r).BulkUpload(ctx, files)
			return err
		})
	if err != nil {
		writeSDKError(w, r, err)
		return
	}

	if refs == nil {
		refs = []dashsdk.ImageRef{}
	}
	httpx.WriteJSON(w, http.StatusCreated, UploadResponse{Images: refs, Notification: n})
}

// formFiles parses the multipart form and returns the parts named field.
func formFiles(w http.ResponseWriter, r *http.Request, field string) ([]*multipart.FileHeader, bool) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid multipart form")
		return nil, false
	}

	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		httpx.WriteError(w, http.StatusUnprocessableEntity, map[string]string{field: "required"})
		return nil, false
	}
	return headers, true
}

func openFiles(headers []*multipart.FileHeader) ([]dashsdk.File, func(), error) {
	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}

	files := make([]dashsdk.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		opened = append(opened, f)
		files = append(files, dashsdk.File{Name: fh.Filename, Content: f})
	}
	return files, closeAll, nil
}
