// Package ui implements the narrate dashboard using bubbletea's Elm architecture.
//
// The dashboard has three views:
//  1. [LoadingView] : spinner while script, audio, voices and subscription load
//  2. [DashboardView] : plan, script, job progress bars and the speaker and voice panes
//  3. [UploadView] : text input for the script file to format
//
// The [Model] implements bubbletea's Init/Update/View pattern and receives messages via the Msg union type.
// Job progress arrives on the channel shared by the format and audio workflows; a succeeded job reloads the overview.
//
// Keys: u upload, g generate audio, c cancel, a auto-assign voices, r reload, tab switch pane, ? help, q quit.
package ui
