// Package ui implements the interactive pieces of the terminal interface.
//
// Prompts follow bubbletea's Elm architecture (Init/Update/View):
//   - [MultiSelectModel] : pick source playlists (space toggles, / filters, enter confirms, esc cancels)
//   - [ConfirmModel] : yes/no question
//
// [TerminalPrompter] runs them as programs and implements [Prompter], which commands depend on so
// tests can substitute scripted answers.
//
// [RenderProgress] turns the engine's [tasks.ProgressUpdate] stream into status lines and a
// progressbar for the insertion phase. Banners use the lipgloss palette in colors.go.
package ui
