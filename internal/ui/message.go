package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/narrate/internal/models"
	"github.com/desertthunder/narrate/internal/tasks"
	"github.com/desertthunder/narrate/internal/voices"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgOverviewLoaded MsgKind = iota
	MsgProgressUpdate
	MsgJobStarted
	MsgAssigned
	MsgCancelled
)

type overviewResult struct {
	overview *Overview
	err      error
}

type jobResult struct {
	kind models.JobKind
	err  error
}

type assignResult struct {
	assignment voices.Assignment
	err        error
}

// overviewLoadedMsg is the constructor for [MsgOverviewLoaded]
func overviewLoadedMsg(ov *Overview, err error) Msg {
	return Msg{kind: MsgOverviewLoaded, data: overviewResult{ov, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// jobStartedMsg is the constructor for [MsgJobStarted]
func jobStartedMsg(kind models.JobKind, err error) Msg {
	return Msg{kind: MsgJobStarted, data: jobResult{kind, err}}
}

// assignedMsg is the constructor for [MsgAssigned]
func assignedMsg(a voices.Assignment, err error) Msg {
	return Msg{kind: MsgAssigned, data: assignResult{a, err}}
}

// cancelledMsg is the constructor for [MsgCancelled]
func cancelledMsg(kind models.JobKind, err error) Msg {
	return Msg{kind: MsgCancelled, data: jobResult{kind, err}}
}
