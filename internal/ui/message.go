package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/vgen/internal/tasks"
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
	MsgUpscaleStarted
	MsgDownloadComplete
	MsgRegenerated
	MsgActionFailed
)

type downloadResult struct {
	path string
	size int64
	err  error
}

type regenerateResult struct {
	videoID string
	err     error
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// upscaleStartedMsg is the constructor for [MsgUpscaleStarted]
func upscaleStartedMsg(err error) Msg {
	return Msg{kind: MsgUpscaleStarted, data: err}
}

// downloadCompleteMsg is the constructor for [MsgDownloadComplete]
func downloadCompleteMsg(path string, size int64, err error) Msg {
	return Msg{kind: MsgDownloadComplete, data: downloadResult{path: path, size: size, err: err}}
}

// regeneratedMsg is the constructor for [MsgRegenerated]
func regeneratedMsg(videoID string, err error) Msg {
	return Msg{kind: MsgRegenerated, data: regenerateResult{videoID: videoID, err: err}}
}

// actionFailedMsg is the constructor for [MsgActionFailed]
func actionFailedMsg(err error) Msg {
	return Msg{kind: MsgActionFailed, data: err}
}
