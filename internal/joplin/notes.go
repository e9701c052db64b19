package joplin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// pingResponse is the fixed body returned by GET /ping.
const pingResponse = "JoplinClipperServer"

// Ping checks that the Web Clipper service is reachable.
func (c *Client) Ping(ctx context.Context) error {
	status, body, err := c.send(ctx, http.MethodGet, "/ping", nil, "", nil)
	if err != nil {
		return err
	}
	if err := checkStatus(http.MethodGet, "/ping", status, body); err != nil {
		return err
	}
	if strings.TrimSpace(string(body)) != pingResponse {
		return &APIError{
			Method:     http.MethodGet,
			Path:       "/ping",
			StatusCode: status,
			Message:    fmt.Sprintf("unexpected ping response %q", string(body)),
		}
	}
	return nil
}

// CreateNote creates a note and returns its id and body.
func (c *Client) CreateNote(ctx context.Context, payload NotePayload) (*Note, error) {
	query := url.Values{"fields": {"id,body"}}

	var note Note
	if err := c.do(ctx, http.MethodPost, "/notes", query, payload, &note); err != nil {
		return nil, fmt.Errorf("creating note %q: %w", payload.Title, err)
	}
	if note.ID == "" {
		return nil, &APIError{
			Method:  http.MethodPost,
			Path:    "/notes",
			Message: "response has no note id",
		}
	}
	return &note, nil
}

// FindTagByTitle searches tags by title and returns every item the server
// reports.
func (c *Client) FindTagByTitle(ctx context.Context, title string) ([]Tag, error) {
	query := url.Values{
		"query": {title},
		"type":  {"tag"},
	}

	var resp searchResponse[Tag]
	if err := c.do(ctx, http.MethodGet, "/search", query, nil, &resp); err != nil {
		return nil, fmt.Errorf("searching tag %q: %w", title, err)
	}
	return resp.Items, nil
}

// CreateTag creates a tag with the given title.
func (c *Client) CreateTag(ctx context.Context, title string) (*Tag, error) {
	var tag Tag
	if err := c.do(ctx, http.MethodPost, "/tags", nil, tagCreate{Title: title}, &tag); err != nil {
		return nil, fmt.Errorf("creating tag %q: %w", title, err)
	}
	return &tag, nil
}

// AttachTagToNote links an existing tag to a note.
func (c *Client) AttachTagToNote(ctx context.Context, tagID, noteID string) error {
	path := "/tags/" + url.PathEscape(tagID) + "/notes"
	if err := c.do(ctx, http.MethodPost, path, nil, tagLink{ID: noteID}, nil); err != nil {
		return fmt.Errorf("attaching tag %s to note %s: %w", tagID, noteID, err)
	}
	return nil
}

// UploadResource uploads data as a resource titled title, using the
// multipart fields "data" and "props".
func (c *Client) UploadResource(
	ctx context.Context,
	data []byte,
	title string,
) (*Resource, error) {
	props, err := json.Marshal(resourceProps{Title: title})
	if err != nil {
		return nil, fmt.Errorf("marshaling resource props: %w", err)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fw, err := w.CreateFormFile("data", title)
	if err != nil {
		return nil, fmt.Errorf("creating data field: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return nil, fmt.Errorf("writing data field: %w", err)
	}
	if err := w.WriteField("props", string(props)); err != nil {
		return nil, fmt.Errorf("writing props field: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart body: %w", err)
	}

	status, body, err := c.send(
		ctx, http.MethodPost, "/resources", nil, w.FormDataContentType(), &buf,
	)
	if err != nil {
		return nil, fmt.Errorf("uploading resource %q: %w", title, err)
	}
	if err := checkStatus(http.MethodPost, "/resources", status, body); err != nil {
		return nil, fmt.Errorf("uploading resource %q: %w", title, err)
	}

	var res Resource
	if err := decode(http.MethodPost, "/resources", body, &res); err != nil {
		return nil, fmt.Errorf("uploading resource %q: %w", title, err)
	}
	return &res, nil
}

// UpdateNoteBody replaces the body of a note. A non-2xx response is logged
// and not returned; only transport failures are.
func (c *Client) UpdateNoteBody(ctx context.Context, noteID, body string) error {
	path := "/notes/" + url.PathEscape(noteID)

	data, err := json.Marshal(noteUpdate{Body: body})
	if err != nil {
		return fmt.Errorf("marshaling note update: %w", err)
	}

	status, respBody, err := c.send(
		ctx, http.MethodPut, path, nil, "application/json", bytes.NewReader(data),
	)
	if err != nil {
		return fmt.Errorf("updating note %s: %w", noteID, err)
	}
	if err := checkStatus(http.MethodPut, path, status, respBody); err != nil {
		c.logger.Warn("note body update rejected",
			zap.String("note_id", noteID),
			zap.Int("status", status),
			zap.String("response", string(respBody)),
		)
	}
	return nil
}

// ListFolders returns every notebook, following pagination.
func (c *Client) ListFolders(ctx context.Context) ([]Folder, error) {
	var folders []Folder
	for page := 1; ; page++ {
		query := url.Values{
			"fields": {"id,title,parent_id"},
			"page":   {strconv.Itoa(page)},
		}

		var resp searchResponse[Folder]
		if err := c.do(ctx, http.MethodGet, "/folders", query, nil, &resp); err != nil {
			return nil, fmt.Errorf("listing folders: %w", err)
		}
		folders = append(folders, resp.Items...)

		if !resp.HasMore || len(resp.Items) == 0 {
			return folders, nil
		}
	}
}
