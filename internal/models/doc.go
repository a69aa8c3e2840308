// Package models defines the domain entities shared by the playsync packages.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects: lightweight structs describing remote or configured data
//   - [Playlist] : a configured playlist with the source playlists it syncs from
//   - [Video] : a playlist member as reported by the remote API
//
// 2. Persistent Entities: database-backed records
//   - [SyncRun] : the summary of one reconciliation, kept for the history command
//
// Persistent entities implement [Model]; [Repository] describes the storage operations
// they support.
package models
