package ui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/narrate/internal/models"
	"github.com/desertthunder/narrate/internal/shared"
	"github.com/desertthunder/narrate/internal/tasks"
	"github.com/desertthunder/narrate/internal/voices"
)

type fakeActions struct {
	mu        sync.Mutex
	overview  *Overview
	loadErr   error
	uploaded  []string
	cancelled []models.JobKind
	assign    voices.Assignment
}

func (f *fakeActions) Load(context.Context) (*Overview, error) { return f.overview, f.loadErr }

func (f *fakeActions) Upload(_ context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploaded = append(f.uploaded, path)
	return nil
}

func (f *fakeActions) Generate(context.Context) error { return shared.ErrUnassigned }

func (f *fakeActions) Cancel(_ context.Context, kind models.JobKind) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, kind)
	return nil
}

func (f *fakeActions) AutoAssign(context.Context) (voices.Assignment, error) { return f.assign, nil }

func sampleOverview() *Overview {
	return &Overview{
		Script: &models.Script{
			FileName: "pilot.pdf",
			Speakers: []models.Speaker{{Name: "ALICE", Gender: "female"}, {Name: "BOB", Gender: "male"}},
		},
		Voices:       []models.Voice{{ID: "v1", Name: "Rachel", Labels: "female"}},
		Assignment:   voices.Assignment{{Speaker: "ALICE"}, {Speaker: "BOB"}},
		Subscription: &models.Subscription{Plan: "pro", ScriptsRemaining: 3, AudioRemaining: 2},
	}
}

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// run executes cmd and feeds every resulting Msg back into the model.
func run(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			run(t, m, c)
		}
	case Msg:
		_, next := m.Update(msg)
		if msg.kind != MsgProgressUpdate {
			run(t, m, next)
		}
	}
}

func loaded(t *testing.T, actions *fakeActions) *Model {
	t.Helper()
	m := NewModel(context.Background(), actions, nil)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	run(t, m, m.load())
	return m
}

func TestModelLoad(t *testing.T) {
	t.Run("overview rendered", func(t *testing.T) {
		m := loaded(t, &fakeActions{overview: sampleOverview()})
		if m.view != DashboardView {
			t.Fatalf("view = %v", m.view)
		}
		out := m.View()
		for _, want := range []string{"pro", "pilot", "2 speakers", "ALICE", "Rachel"} {
			if !strings.Contains(out, want) {
				t.Errorf("view missing %q", want)
			}
		}
	})

	t.Run("signed out", func(t *testing.T) {
		m := loaded(t, &fakeActions{loadErr: shared.ErrNeedsSignIn})
		if !strings.Contains(m.View(), "narrate auth login") {
			t.Errorf("expected sign-in hint, got %q", m.View())
		}
	})

	t.Run("no script yet", func(t *testing.T) {
		m := loaded(t, &fakeActions{overview: &Overview{}})
		if !strings.Contains(m.View(), "press u to upload") {
			t.Errorf("unexpected view %q", m.View())
		}
	})
}

func TestModelProgress(t *testing.T) {
	m := loaded(t, &fakeActions{overview: sampleOverview()})

	m.Update(progressUpdateMsg(tasks.ProgressUpdate{Kind: models.JobKindFormat, State: tasks.Polling, Progress: 40, TaskID: "t1"}))
	if !m.active(models.JobKindFormat) {
		t.Fatal("format job should be active")
	}
	if !strings.Contains(m.View(), "40%") {
		t.Errorf("progress bar missing: %q", m.View())
	}

	m.Update(progressUpdateMsg(tasks.ProgressUpdate{Kind: models.JobKindFormat, State: tasks.Failed, Message: "Error formatting Script"}))
	if m.active(models.JobKindFormat) || !m.statusErr || m.status != "Error formatting Script" {
		t.Errorf("status = %q err=%v", m.status, m.statusErr)
	}
}

func TestModelKeys(t *testing.T) {
	t.Run("upload", func(t *testing.T) {
		actions := &fakeActions{overview: sampleOverview()}
		m := loaded(t, actions)

		m.Update(keyPress("u"))
		if m.view != UploadView {
			t.Fatalf("view = %v, want upload", m.view)
		}
		m.input.SetValue("script.pdf")
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		run(t, m, cmd)

		if m.view != DashboardView || len(actions.uploaded) != 1 || actions.uploaded[0] != "script.pdf" {
			t.Errorf("view=%v uploaded=%v", m.view, actions.uploaded)
		}
	})

	t.Run("cancel only active jobs", func(t *testing.T) {
		actions := &fakeActions{overview: sampleOverview()}
		m := loaded(t, actions)

		_, cmd := m.Update(keyPress("c"))
		if cmd != nil || m.status != "Nothing to cancel" {
			t.Errorf("status = %q", m.status)
		}

		m.Update(progressUpdateMsg(tasks.ProgressUpdate{Kind: models.JobKindAudio, State: tasks.Polling, TaskID: "a1"}))
		_, cmd = m.Update(keyPress("c"))
		run(t, m, cmd)
		if len(actions.cancelled) != 1 || actions.cancelled[0] != models.JobKindAudio {
			t.Errorf("cancelled = %v", actions.cancelled)
		}
	})

	t.Run("auto assign", func(t *testing.T) {
		actions := &fakeActions{
			overview: sampleOverview(),
			assign:   voices.Assignment{{Speaker: "ALICE", VoiceID: "v1"}, {Speaker: "BOB"}},
		}
		m := loaded(t, actions)

		_, cmd := m.Update(keyPress("a"))
		run(t, m, cmd)

		if id, _ := m.overview.Assignment.Get("ALICE"); id != "v1" {
			t.Errorf("ALICE = %q", id)
		}
		if !strings.Contains(m.status, "BOB") {
			t.Errorf("status = %q, want shortage warning", m.status)
		}
	})

	t.Run("generate error shown", func(t *testing.T) {
		m := loaded(t, &fakeActions{overview: sampleOverview()})
		_, cmd := m.Update(keyPress("g"))
		run(t, m, cmd)
		if !m.statusErr || !strings.Contains(m.status, shared.ErrUnassigned.Error()) {
			t.Errorf("status = %q", m.status)
		}
	})

	t.Run("quit", func(t *testing.T) {
		m := loaded(t, &fakeActions{overview: sampleOverview()})
		_, cmd := m.Update(keyPress("q"))
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
	})
}

func TestErrorText(t *testing.T) {
	if got := errorText(errors.New("boom")); got != "boom" {
		t.Errorf("errorText = %q", got)
	}
}
