package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/sandeepkv93/tasknotes/internal/composer"
	"github.com/sandeepkv93/tasknotes/internal/model"
)

func notesPath(taskID string) string {
	return "/api/tasks/" + url.PathEscape(taskID) + "/notes"
}

func (c *Client) GetTask(ctx context.Context, taskID string) (model.Task, error) {
	var raw json.RawMessage
	if err := c.Do(ctx, http.MethodGet, "/api/tasks/"+url.PathEscape(taskID), nil, "", &raw); err != nil {
		return model.Task{}, err
	}
	var task model.Task
	if err := decodeEnveloped(raw, "task", &task); err != nil {
		return model.Task{}, fmt.Errorf("decode task: %w", err)
	}
	return task, nil
}

// ListNotes fetches the notes of a task in backend order.
func (c *Client) ListNotes(ctx context.Context, taskID string) ([]model.Note, error) {
	var raw json.RawMessage
	if err := c.Do(ctx, http.MethodGet, notesPath(taskID), nil, "", &raw); err != nil {
		return nil, err
	}
	notes := []model.Note{}
	if len(raw) == 0 {
		return notes, nil
	}
	if err := decodeEnveloped(raw, "notes", &notes); err != nil {
		return nil, fmt.Errorf("decode notes: %w", err)
	}
	if notes == nil {
		notes = []model.Note{}
	}
	return notes, nil
}

// CreateNote posts the draft as one multipart message. The body is
// streamed so file contents are read only once, at send time.
func (c *Client) CreateNote(ctx context.Context, taskID string, draft composer.Draft) (*model.Note, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeNoteForm(mw, draft))
	}()

	var raw json.RawMessage
	err := c.Do(ctx, http.MethodPost, notesPath(taskID), pr, mw.FormDataContentType(), &raw)
	_ = pr.Close()
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var note model.Note
	if err := decodeEnveloped(raw, "note", &note); err != nil {
		return nil, fmt.Errorf("decode note: %w", err)
	}
	if note.ID == "" && note.Text == "" && len(note.Attachments) == 0 {
		return nil, nil
	}
	return &note, nil
}

func writeNoteForm(mw *multipart.Writer, draft composer.Draft) error {
	if err := mw.WriteField("text", draft.Text); err != nil {
		return fmt.Errorf("write text field: %w", err)
	}
	for _, f := range draft.Files {
		if err := writeFilePart(mw, f); err != nil {
			return err
		}
	}
	if draft.Location != nil {
		payload, err := json.Marshal(draft.Location)
		if err != nil {
			return fmt.Errorf("encode location: %w", err)
		}
		if err := mw.WriteField("location", string(payload)); err != nil {
			return fmt.Errorf("write location field: %w", err)
		}
	}
	return mw.Close()
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeFilePart(mw *multipart.Writer, f composer.File) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename="%s"`, quoteEscaper.Replace(f.Name)))
	contentType := f.MIMEType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("create file part %s: %w", f.Name, err)
	}
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()
	if _, err := io.Copy(part, rc); err != nil {
		return fmt.Errorf("copy %s: %w", f.Name, err)
	}
	return nil
}
