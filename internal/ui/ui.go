package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/narrate/internal/models"
	"github.com/desertthunder/narrate/internal/shared"
	"github.com/desertthunder/narrate/internal/tasks"
	"github.com/desertthunder/narrate/internal/voices"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoadingView ViewState = iota
	DashboardView
	UploadView
)

type pane int

const (
	speakerPane pane = iota
	voicePane
)

var jobKinds = []models.JobKind{models.JobKindFormat, models.JobKindAudio}

// Overview is everything the dashboard shows besides live job progress.
type Overview struct {
	Script       *models.Script
	Audio        *models.Audio
	Voices       []models.Voice
	Assignment   voices.Assignment
	Subscription *models.Subscription
	Warnings     []string
}

// Actions are the operations the dashboard can trigger.
//
// Upload and Generate return once the job is submitted; progress then arrives on the update channel.
type Actions interface {
	Load(ctx context.Context) (*Overview, error)
	Upload(ctx context.Context, path string) error
	Generate(ctx context.Context) error
	Cancel(ctx context.Context, kind models.JobKind) error
	AutoAssign(ctx context.Context) (voices.Assignment, error)
}

// Model represents the dashboard state.
type Model struct {
	ctx        context.Context
	actions    Actions
	progressCh <-chan tasks.ProgressUpdate

	view   ViewState
	pane   pane
	width  int
	height int

	overview *Overview
	jobs     map[models.JobKind]tasks.ProgressUpdate
	bars     map[models.JobKind]progress.Model
	speakers list.Model
	voices   list.Model
	input    textinput.Model
	spinner  spinner.Model
	help     help.Model
	keys     keyMap

	status    string
	statusErr bool
	err       error
}

// NewModel creates a dashboard model. updates is the channel both workflows report progress on.
func NewModel(ctx context.Context, actions Actions, updates <-chan tasks.ProgressUpdate) *Model {
	input := textinput.New()
	input.Placeholder = "path/to/script.pdf"
	input.Prompt = "Script file: "
	input.CharLimit = 512

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &Model{
		ctx:        ctx,
		actions:    actions,
		progressCh: updates,
		view:       LoadingView,
		jobs:       make(map[models.JobKind]tasks.ProgressUpdate),
		bars:       make(map[models.JobKind]progress.Model),
		input:      input,
		spinner:    sp,
		help:       help.New(),
		keys:       newKeyMap(),
		speakers:   newList("Speakers", nil),
		voices:     newList("Voices", nil),
	}
	for _, kind := range jobKinds {
		m.bars[kind] = progress.New(progress.WithDefaultGradient(), progress.WithWidth(40))
	}
	return m
}

func newList(title string, items []list.Item) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowHelp(false)
	return l
}

// Init loads the overview and starts listening for job progress.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load(), m.waitForProgress())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case spinner.TickMsg:
		if m.view != LoadingView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch m.view {
		case UploadView:
			return m.handleUploadKeys(msg)
		case DashboardView:
			return m.handleDashboardKeys(msg)
		default:
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			return m, nil
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgOverviewLoaded:
		res := msg.data.(overviewResult)
		m.view = DashboardView
		if res.err != nil {
			m.err = res.err
			return m, nil
		}
		m.err = nil
		if res.overview == nil {
			res.overview = &Overview{}
		}
		m.setOverview(res.overview)
		if len(res.overview.Warnings) > 0 {
			m.setStatus(strings.Join(res.overview.Warnings, "; "), true)
		}
		return m, nil

	case MsgProgressUpdate:
		update := msg.data.(tasks.ProgressUpdate)
		m.jobs[update.Kind] = update
		if update.Message != "" {
			m.setStatus(update.Message, update.State == tasks.Failed)
		}
		if update.State == tasks.Succeeded {
			return m, tea.Batch(m.waitForProgress(), m.load())
		}
		return m, m.waitForProgress()

	case MsgJobStarted, MsgCancelled:
		res := msg.data.(jobResult)
		if res.err != nil && !errors.Is(res.err, shared.ErrJobCancelled) && !errors.Is(res.err, shared.ErrNoActiveJob) {
			m.setStatus(errorText(res.err), true)
		}
		return m, nil

	case MsgAssigned:
		res := msg.data.(assignResult)
		if res.err != nil {
			m.setStatus(errorText(res.err), true)
			return m, nil
		}
		if m.overview != nil {
			m.overview.Assignment = res.assignment
			m.speakers.SetItems(speakerItems(m.overview))
		}
		if missing := res.assignment.Unassigned(); len(missing) > 0 {
			m.setStatus(fmt.Sprintf("Not enough voices for: %s", strings.Join(missing, ", ")), true)
		} else {
			m.setStatus("Voices assigned", false)
		}
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case LoadingView:
		return fmt.Sprintf("%s Loading your workspace...\n", m.spinner.View())
	case UploadView:
		return m.renderUpload()
	default:
		return m.renderDashboard()
	}
}

func (m *Model) handleDashboardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.activeList().FilterState() == list.Filtering {
		return m.updateLists(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.upload):
		m.view = UploadView
		m.input.SetValue("")
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.generate):
		return m, m.generate()
	case key.Matches(msg, m.keys.cancel):
		return m, m.cancelActive()
	case key.Matches(msg, m.keys.assign):
		return m, m.autoAssign()
	case key.Matches(msg, m.keys.reload):
		return m, m.load()
	case key.Matches(msg, m.keys.tab):
		if m.pane == speakerPane {
			m.pane = voicePane
		} else {
			m.pane = speakerPane
		}
		return m, nil
	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	return m.updateLists(msg)
}

func (m *Model) handleUploadKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.input.Blur()
		m.view = DashboardView
		return m, nil
	case key.Matches(msg, m.keys.enter):
		path := strings.TrimSpace(m.input.Value())
		if path == "" {
			return m, nil
		}
		m.input.Blur()
		m.view = DashboardView
		return m, m.upload(path)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.pane == speakerPane {
		m.speakers, cmd = m.speakers.Update(msg)
	} else {
		m.voices, cmd = m.voices.Update(msg)
	}
	return m, cmd
}

func (m *Model) activeList() *list.Model {
	if m.pane == voicePane {
		return &m.voices
	}
	return &m.speakers
}

func (m *Model) resize(w, h int) {
	m.width, m.height = w, h
	paneW := max(w/2-4, 20)
	paneH := max(h-16, 6)
	m.speakers.SetSize(paneW, paneH)
	m.voices.SetSize(paneW, paneH)
	for kind, bar := range m.bars {
		bar.Width = min(max(w-24, 10), 60)
		m.bars[kind] = bar
	}
}

func (m *Model) setOverview(ov *Overview) {
	m.overview = ov
	m.speakers.SetItems(speakerItems(ov))
	m.voices.SetItems(voiceItems(ov))
}

func (m *Model) setStatus(s string, isErr bool) {
	m.status = s
	m.statusErr = isErr
}

func (m *Model) active(kind models.JobKind) bool {
	u, ok := m.jobs[kind]
	return ok && u.State.Active()
}

func (m *Model) load() tea.Cmd {
	return func() tea.Msg {
		ov, err := m.actions.Load(m.ctx)
		return overviewLoadedMsg(ov, err)
	}
}

func (m *Model) upload(path string) tea.Cmd {
	return func() tea.Msg {
		return jobStartedMsg(models.JobKindFormat, m.actions.Upload(m.ctx, path))
	}
}

func (m *Model) generate() tea.Cmd {
	return func() tea.Msg {
		return jobStartedMsg(models.JobKindAudio, m.actions.Generate(m.ctx))
	}
}

func (m *Model) autoAssign() tea.Cmd {
	return func() tea.Msg {
		a, err := m.actions.AutoAssign(m.ctx)
		return assignedMsg(a, err)
	}
}

func (m *Model) cancelActive() tea.Cmd {
	var cmds []tea.Cmd
	for _, kind := range jobKinds {
		if !m.active(kind) {
			continue
		}
		cmds = append(cmds, func() tea.Msg {
			return cancelledMsg(kind, m.actions.Cancel(m.ctx, kind))
		})
	}
	if len(cmds) == 0 {
		m.setStatus("Nothing to cancel", false)
		return nil
	}
	return tea.Batch(cmds...)
}

func (m *Model) waitForProgress() tea.Cmd {
	if m.progressCh == nil {
		return nil
	}
	return func() tea.Msg {
		update, ok := <-m.progressCh
		if !ok {
			return nil
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderDashboard() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("narrate"))
	b.WriteString("\n")

	if m.err != nil && m.overview == nil {
		b.WriteString(styles.err.Render(errorText(m.err)))
		b.WriteString("\n\n")
		b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.reload, m.keys.quit}))
		return b.String()
	}

	b.WriteString(m.renderSummary())
	b.WriteString("\n")
	for _, kind := range jobKinds {
		if line := m.renderJob(kind); line != "" {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	left, right := m.speakers.View(), m.voices.View()
	if m.pane == speakerPane {
		left = styles.pane.BorderForeground(lipgloss.Color("#7C3AED")).Render(left)
		right = styles.pane.Render(right)
	} else {
		left = styles.pane.Render(left)
		right = styles.pane.BorderForeground(lipgloss.Color("#7C3AED")).Render(right)
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
	b.WriteString("\n")

	if m.status != "" {
		if m.statusErr {
			b.WriteString(styles.err.Render(m.status))
		} else {
			b.WriteString(styles.help.Render(m.status))
		}
		b.WriteString("\n")
	}

	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) renderSummary() string {
	ov := m.overview
	if ov == nil {
		return ""
	}

	var lines []string
	if sub := ov.Subscription; sub != nil {
		lines = append(lines, fmt.Sprintf("%s %s • %d scripts • %d audio left",
			styles.label.Render("Plan"), sub.Plan, sub.ScriptsRemaining, sub.AudioRemaining))
	}
	if ov.Script != nil {
		lines = append(lines, fmt.Sprintf("%s %s (%d speakers)",
			styles.label.Render("Script"), ov.Script.DisplayName(), len(ov.Script.Speakers)))
	} else {
		lines = append(lines, styles.label.Render("Script")+" none yet, press u to upload one")
	}
	if ov.Audio != nil {
		lines = append(lines, fmt.Sprintf("%s %s", styles.label.Render("Audio"), ov.Audio.Name))
	}
	return strings.Join(lines, "\n") + "\n"
}

func (m *Model) renderJob(kind models.JobKind) string {
	u, ok := m.jobs[kind]
	if !ok || u.State == tasks.Idle {
		return ""
	}

	label := styles.State(u.State).Render(fmt.Sprintf("%-7s %s", kind, u.State))
	if u.State == tasks.Polling {
		return fmt.Sprintf("%s %s", label, m.bars[kind].ViewAs(u.Progress/100))
	}
	return label
}

func (m *Model) renderUpload() string {
	title := styles.title.Render("Upload a script")
	hint := styles.help.Render("txt, pdf or docx")
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.back})
	return fmt.Sprintf("%s\n%s\n%s\n\n%s", title, m.input.View(), hint, helpView)
}

// errorText turns a sign-in error into a hint and leaves others as they are.
func errorText(err error) string {
	if errors.Is(err, shared.ErrNeedsSignIn) {
		return "Your session has ended. Sign in again with `narrate auth login`."
	}
	return err.Error()
}
