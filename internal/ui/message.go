package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/sortify/internal/tasks"
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
	MsgProgressUpdate MsgKind = iota
	MsgConfirmRequest
	MsgSessionDone
)

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// confirmRequestMsg is the constructor for [MsgConfirmRequest]
func confirmRequestMsg(question string) Msg {
	return Msg{kind: MsgConfirmRequest, data: question}
}

type sessionOutcome struct {
	result *tasks.SessionResult
	err    error
}

// sessionDoneMsg is the constructor for [MsgSessionDone]
func sessionDoneMsg(result *tasks.SessionResult, err error) Msg {
	return Msg{kind: MsgSessionDone, data: sessionOutcome{result, err}}
}
