package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/maestro/internal/tasks"
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
	MsgPlaylistsChanged MsgKind = iota
	MsgActionDone
	MsgProgressUpdate
	MsgPublished
	MsgTick
)

// action names an asynchronous operation so its completion can be routed.
type action string

const (
	actionOpen    action = "open"
	actionArchive action = "archive"
	actionDelete  action = "delete"
	actionIdeas   action = "ideas"
	actionTitles  action = "titles"
	actionLiner   action = "liner-notes"
	actionNext    action = "next-themes"
	actionSave    action = "save"
)

type actionResult struct {
	action action
	err    error
}

type publishResult struct {
	result *tasks.PublishResult
	err    error
}

// playlistsChangedMsg is the constructor for [MsgPlaylistsChanged]
func playlistsChangedMsg() Msg {
	return Msg{kind: MsgPlaylistsChanged}
}

// actionDoneMsg is the constructor for [MsgActionDone]
func actionDoneMsg(a action, err error) Msg {
	return Msg{kind: MsgActionDone, data: actionResult{action: a, err: err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// publishedMsg is the constructor for [MsgPublished]
func publishedMsg(result *tasks.PublishResult, err error) Msg {
	return Msg{kind: MsgPublished, data: publishResult{result: result, err: err}}
}

// tickMsg is the constructor for [MsgTick]
func tickMsg(at time.Time) Msg {
	return Msg{kind: MsgTick, data: at}
}
