// Package composer accumulates an outgoing note: text, files and an
// optional location, submitted together as one message.
package composer

import (
	"context"
	"errors"
	"strings"

	"github.com/sandeepkv93/tasknotes/internal/model"
)

var ErrEmptyDraft = errors.New("composer: nothing to send")

// Draft is the content of one submission.
type Draft struct {
	Text     string
	Files    []File
	Location *model.Location
}

// Submitter sends a draft for a task and returns the created note when the
// backend echoes it.
type Submitter interface {
	CreateNote(ctx context.Context, taskID string, draft Draft) (*model.Note, error)
}

// Composer is a value type; copies share nothing mutable.
type Composer struct {
	text     string
	files    []File
	location *model.Location
	seq      uint64
}

func (c *Composer) SetText(text string) { c.text = text }

func (c Composer) Text() string { return c.text }

func (c Composer) Files() []File {
	return append([]File(nil), c.files...)
}

func (c Composer) Location() (model.Location, bool) {
	if c.location == nil {
		return model.Location{}, false
	}
	return *c.location, true
}

// AddFiles validates each file against MaxFileSize, appends the accepted
// ones to the selection and truncates it to MaxFiles. Oversized files are
// returned; excess beyond the count cap is dropped silently.
func (c *Composer) AddFiles(files ...File) []Rejection {
	var rejected []Rejection
	next := append([]File(nil), c.files...)
	for _, f := range files {
		if f.Size > MaxFileSize {
			rejected = append(rejected, Rejection{Name: f.Name, Size: f.Size})
			continue
		}
		c.seq++
		f.id = c.seq
		next = append(next, f)
	}
	if len(next) > MaxFiles {
		next = next[:MaxFiles]
	}
	c.files = next
	return rejected
}

func (c *Composer) RemoveFile(i int) bool {
	if i < 0 || i >= len(c.files) {
		return false
	}
	next := make([]File, 0, len(c.files)-1)
	next = append(next, c.files[:i]...)
	c.files = append(next, c.files[i+1:]...)
	return true
}

func (c *Composer) SetLocation(loc model.Location) error {
	if err := loc.Validate(); err != nil {
		return err
	}
	c.location = &loc
	return nil
}

func (c *Composer) ClearLocation() { c.location = nil }

// CanSubmit reports whether there is non-blank text, a file or a location.
func (c Composer) CanSubmit() bool {
	return strings.TrimSpace(c.text) != "" || len(c.files) > 0 || c.location != nil
}

// Draft snapshots the pending content.
func (c Composer) Draft() Draft {
	d := Draft{Text: strings.TrimSpace(c.text), Files: c.Files()}
	if c.location != nil {
		loc := *c.location
		d.Location = &loc
	}
	return d
}

// ClearSent removes the content a submitted draft carried. Anything added
// after the draft was taken stays for the next submission.
func (c *Composer) ClearSent(d Draft) {
	if strings.TrimSpace(c.text) == d.Text {
		c.text = ""
	}
	if len(d.Files) > 0 {
		sent := make(map[uint64]struct{}, len(d.Files))
		for _, f := range d.Files {
			sent[f.id] = struct{}{}
		}
		var kept []File
		for _, f := range c.files {
			if _, ok := sent[f.id]; !ok {
				kept = append(kept, f)
			}
		}
		c.files = kept
	}
	if d.Location != nil && c.location != nil && *c.location == *d.Location {
		c.location = nil
	}
}

func (c *Composer) Clear() {
	c.text = ""
	c.files = nil
	c.location = nil
}

// Submit sends the draft. The buffer is cleared only when the submitter
// succeeds; on failure it is left exactly as it was.
func (c *Composer) Submit(ctx context.Context, s Submitter, taskID string) (*model.Note, error) {
	if !c.CanSubmit() {
		return nil, ErrEmptyDraft
	}
	d := c.Draft()
	note, err := s.CreateNote(ctx, taskID, d)
	if err != nil {
		return nil, err
	}
	c.ClearSent(d)
	return note, nil
}
