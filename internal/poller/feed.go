package poller

import "github.com/sandeepkv93/tasknotes/internal/model"

// Feed is the cached note list shown by the panel.
type Feed struct {
	Notes   []model.Note
	Err     error
	Loaded  bool
	Loading bool
}

// Apply folds a fetch result into the feed and reports whether the visible
// list changed. A failed fetch keeps the cached notes.
func (f *Feed) Apply(res Result) bool {
	f.Loading = false
	if res.Err != nil {
		f.Err = res.Err
		return false
	}
	f.Err = nil
	f.Loaded = true
	changed := !sameNotes(f.Notes, res.Notes)
	f.Notes = res.Notes
	return changed
}

// Append adds a note echoed by a submit unless the list already has it.
func (f *Feed) Append(n model.Note) bool {
	if n.ID != "" {
		for _, existing := range f.Notes {
			if existing.ID == n.ID {
				return false
			}
		}
	}
	f.Notes = append(f.Notes, n)
	return true
}

func (f Feed) Empty() bool {
	return f.Loaded && len(f.Notes) == 0
}

func sameNotes(a, b []model.Note) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Text != b[i].Text || len(a[i].Attachments) != len(b[i].Attachments) {
			return false
		}
	}
	return true
}
