package update

import (
	"time"

	"github.com/sandeepkv93/tasknotes/internal/poller"
	"github.com/sandeepkv93/tasknotes/internal/recorder"
	"github.com/sandeepkv93/tasknotes/internal/views"
)

func (m *Model) refreshNotesView() {
	m.notesView.SetContent(views.RenderNotes(views.NotesData{
		Notes:         m.Feed.Notes,
		CurrentUserID: m.CurrentUserID,
		Loading:       m.Feed.Loading,
		Loaded:        m.Feed.Loaded,
		Width:         m.notesView.Width,
		Now:           m.now(),
		Markdown:      m.markdown,
	}))
}

func (m Model) renderComposer() string {
	files := m.Composer.Files()
	data := views.ComposerData{
		InputView:   m.input.View(),
		Files:       make([]views.ComposerFileData, 0, len(files)),
		Locating:    m.Locating,
		Sending:     m.Sending,
		SpinnerView: m.spin.View(),
		CanSubmit:   m.Composer.CanSubmit() && !m.Sending,
	}
	for _, f := range files {
		data.Files = append(data.Files, views.ComposerFileData{Name: f.Name, MIMEType: f.MIMEType, Size: f.Size})
	}
	if loc, ok := m.Composer.Location(); ok {
		data.Location = &loc
	}
	if (m.Recording.Active || m.Recording.Starting) && m.Recording.Kind == recorder.KindAudio {
		data.Recording = m.renderRecording()
	}
	return views.RenderComposer(data)
}

func (m Model) renderRecording() string {
	if m.Recording.Starting {
		return m.spin.View() + " waiting for device..."
	}
	limit := m.maxRecording()
	pct := 0.0
	if limit > 0 {
		pct = float64(m.Recording.Elapsed) / float64(limit)
	}
	if pct > 1 {
		pct = 1
	}
	return views.RenderRecording(views.RecordingData{
		Kind:         string(m.Recording.Kind),
		Elapsed:      m.Recording.Elapsed,
		Max:          limit,
		ProgressView: m.recProgress.ViewAs(pct),
	})
}

func (m Model) renderVideoModal() string {
	data := views.VideoModalData{Recording: m.Recording.Active || m.Recording.Starting}
	if data.Recording {
		data.RecordingUI = m.renderRecording()
	}
	return views.RenderVideoModal(data)
}

func (m Model) maxRecording() time.Duration {
	if m.deps.Recorder == nil {
		return recorder.DefaultMaxDuration
	}
	return m.deps.Recorder.MaxDuration()
}

func (m Model) bannerVisible() bool {
	return m.Feed.Err != nil && !m.BannerDismissed
}

func (m Model) busy() bool {
	return m.Sending || m.Locating || m.Recording.Starting
}

func (m Model) feedChan() <-chan poller.Result {
	if m.deps.Feed == nil {
		return nil
	}
	return m.deps.Feed.C()
}

func (m Model) recorderChan() <-chan recorder.Event {
	if m.deps.Recorder == nil {
		return nil
	}
	return m.deps.Recorder.Events()
}
