package mapbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

const STATUS_PROCESSING string = "processing"
const STATUS_SUCCESS string = "success"

type TilesetResponse struct {
	Message string `json:"message"`
}

type PublishResponse struct {
	Message string `json:"message"`
	JobID   string `json:"jobId"`
}

type StatusResponse struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	LatestJob string `json:"latest_job"`
}

type tilesetRequest struct {
	Recipe json.RawMessage `json:"recipe"`
	Name   string          `json:"name"`
}

// CreateOrUpdateTileset submits 'recipe' for 'tileset_id'. Both 200 and 201 responses are treated as success.
func (c *Client) CreateOrUpdateTileset(ctx context.Context, tileset_id string, name string, recipe []byte) (*TilesetResponse, error) {

	slog.Info("Creating or updating tileset", "tileset", tileset_id)

	if name == "" {
		name = tileset_id
	}

	enc, err := json.Marshal(tilesetRequest{
		Recipe: json.RawMessage(recipe),
		Name:   name,
	})

	if err != nil {
		return nil, fmt.Errorf("Failed to marshal recipe, %w", err)
	}

	vars := map[string]interface{}{
		"tileset_id": tileset_id,
	}

	req, err := c.newRequest(ctx, http.MethodPost, TILESET_TEMPLATE, vars, bytes.NewReader(enc))

	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")

	var ts_rsp TilesetResponse

	err = c.do("create tileset", req, &ts_rsp, http.StatusOK, http.StatusCreated)

	if err != nil {
		return nil, err
	}

	slog.Info("Tileset created/updated", "tileset", tileset_id, "message", ts_rsp.Message)
	return &ts_rsp, nil
}

// PublishTileset starts an asynchronous publish job for 'tileset_id'.
func (c *Client) PublishTileset(ctx context.Context, tileset_id string) (*PublishResponse, error) {

	slog.Info("Publishing tileset", "tileset", tileset_id)

	vars := map[string]interface{}{
		"tileset_id": tileset_id,
	}

	req, err := c.newRequest(ctx, http.MethodPost, PUBLISH_TEMPLATE, vars, nil)

	if err != nil {
		return nil, err
	}

	var pub_rsp PublishResponse

	err = c.do("publish tileset", req, &pub_rsp, http.StatusOK)

	if err != nil {
		return nil, err
	}

	slog.Info("Publication started", "tileset", tileset_id, "job", pub_rsp.JobID)
	return &pub_rsp, nil
}

func (c *Client) TilesetStatus(ctx context.Context, tileset_id string) (*StatusResponse, error) {

	vars := map[string]interface{}{
		"tileset_id": tileset_id,
	}

	req, err := c.newRequest(ctx, http.MethodGet, STATUS_TEMPLATE, vars, nil)

	if err != nil {
		return nil, err
	}

	var status_rsp StatusResponse

	err = c.do("tileset status", req, &status_rsp, http.StatusOK)

	if err != nil {
		return nil, err
	}

	return &status_rsp, nil
}
