// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI follows one generation job at a time:
//  1. [DashboardView] : Browse recent jobs, refreshed by a background poller
//  2. [JobDetailView] : Watch videos arrive grouped by prompt and build a selection
//  3. [UpscaleView] : Pick a quality preset and follow the upscale task log
//  4. [InputView] : Edit the download folder or a regeneration prompt
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Every poller (dashboard, job sync and task tracker) reports through one shared progress channel, which the model drains
// with a re-armed command so the Update loop never blocks on the network.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
