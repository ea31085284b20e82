// Package models defines domain entities and persistence interfaces for Mixtape Maestro.
//
// The package contains two categories of types:
//
// 1. Value types passed between the wizard, prompts and services:
//   - [Song] : an entry in a playlist, with a client-generated id and a personal note
//   - [Suggestion] / [RawSuggestion] : generative candidates before and after filtering
//   - [Preferences] : the AI preference bundle (years, language, fusion genres, arcs)
//   - [Draft] : the editable playlist document
//   - [Track] : a Spotify search result
//   - [Session] : the signed-in user, passed explicitly to components
//
// 2. Persistent entities: database-backed models with full lifecycle management
//   - [User] : accounts with bcrypt password hashes
//   - [Playlist] : a saved [Draft] owned by one user
//   - [ResolvedTrack] : cached Spotify search results keyed by title and artist
//   - [Publish] : one Save to Spotify run
//
// All persistent entities implement the Model interface providing ID generation, timestamps, validation, and soft delete support.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
