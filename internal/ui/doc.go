// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI has four views:
//  1. [DashboardView] : Browse active and archived mixtapes, archive, delete, edit or remix them
//  2. [WizardView] : Build a mixtape in three steps (Foundation, Curation, Final Touches)
//  3. [ConfirmDeleteView] : Confirm a permanent deletion
//  4. [PublishView] : Monitor the Spotify save while tracks are searched and added
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Dashboard snapshots and publish progress arrive on channels that are drained by blocking commands, so the store
// subscription and the publisher never touch the model directly.
//
// Generative and persistence calls run as commands while a spinner is shown; their outcomes surface as notices
// that expire on a ticker.
package ui
