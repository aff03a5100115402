package transport

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"github.com/gabriel-vasile/mimetype"
	"github.com/roomsync/roomsync-client/types"
)

// allowedUploadTypes are the image types the API accepts.
var allowedUploadTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}

// Upload posts data as a multipart file under field. The part's content type
// is sniffed from the bytes rather than trusted from the file name.
func Upload[T any](ctx context.Context, c *Client, method, path, field, filename string, data []byte) (*types.Envelope[T], error) {
	mtype := mimetype.Detect(data)
	if !mimetype.EqualsAny(mtype.String(), allowedUploadTypes...) {
		return nil, fmt.Errorf("unsupported upload type %s", mtype.String())
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	h.Set("Content-Type", mtype.String())
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("failed to create multipart part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write multipart part: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	if method == "" {
		method = http.MethodPost
	}
	status, raw, err := c.send(ctx, method, path, nil, &buf, w.FormDataContentType())
	if err != nil {
		return nil, err
	}
	return decode[T](ctx, c, method, path, status, raw)
}
