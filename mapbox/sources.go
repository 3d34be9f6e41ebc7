package mapbox

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
)

type SourceResponse struct {
	ID         string `json:"id"`
	Files      int    `json:"files"`
	SourceSize int64  `json:"source_size"`
	FileSize   int64  `json:"file_size"`
}

// SourceURI returns the "mapbox://tileset-source" URI used to reference a source from a recipe.
func SourceURI(username string, source_id string) string {
	return fmt.Sprintf("mapbox://tileset-source/%s/%s", username, source_id)
}

// CreateOrUpdateSource uploads the line-delimited GeoJSON file at 'path' as the tileset source
// '{username}/{source_id}', replacing any existing source with the same name.
func (c *Client) CreateOrUpdateSource(ctx context.Context, username string, source_id string, path string) (*SourceResponse, error) {

	slog.Info("Creating or updating tileset source", "username", username, "source", source_id)

	fh, err := os.Open(path)

	if err != nil {
		return nil, fmt.Errorf("Failed to open %s, %w", path, err)
	}

	defer fh.Close()

	var body bytes.Buffer
	mp_wr := multipart.NewWriter(&body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="data.geojson"`)
	h.Set("Content-Type", "application/json")

	part_wr, err := mp_wr.CreatePart(h)

	if err != nil {
		return nil, fmt.Errorf("Failed to create multipart body, %w", err)
	}

	_, err = io.Copy(part_wr, fh)

	if err != nil {
		return nil, fmt.Errorf("Failed to copy %s to request body, %w", path, err)
	}

	err = mp_wr.Close()

	if err != nil {
		return nil, fmt.Errorf("Failed to close multipart body, %w", err)
	}

	vars := map[string]interface{}{
		"username":  username,
		"source_id": source_id,
	}

	req, err := c.newRequest(ctx, http.MethodPut, SOURCE_TEMPLATE, vars, &body)

	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", mp_wr.FormDataContentType())

	var src_rsp SourceResponse

	err = c.do("create source", req, &src_rsp, http.StatusOK)

	if err != nil {
		return nil, err
	}

	slog.Info("Source created/updated", "id", src_rsp.ID, "files", src_rsp.Files, "size", src_rsp.SourceSize)
	return &src_rsp, nil
}
