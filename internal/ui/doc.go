// Package ui implements the interactive candidate picker using bubbletea's Elm architecture.
//
// When a free-text query leaves a sync in Resolving, the picker walks through:
//  1. [PickView] : choose one of the ranked candidates
//  2. [SyncView] : follow progress while the sync is re-run for the chosen track
//  3. [ResultView] : show the final state
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the SyncEngine.
//
// The package also exposes the lipgloss palette used for plain CLI output.
package ui
