// Package services holds the HTTP clients for the two remote APIs the app talks to.
//
// # Curator
//
// [GeminiService] implements [Curator]. Each method sends a single prompt to the Gemini
// generateContent endpoint and decodes the structured answer (song ideas, titles, future
// ideas) or returns free text (liner notes). A missing API key fails fast with
// [shared.ErrConfiguration]; non-2xx answers become [shared.ErrUpstream] carrying the
// status code and the API's own message.
//
// # Publishing Service
//
// [SpotifyService] implements [Service]. It authenticates with OAuth2, refreshes tokens
// automatically through [oauth2.NewClient] and reports each new token to the callback set
// with [SpotifyService.SetTokenRefreshCallback] so the caller can persist it.
//
// Publishing a mixtape is: CurrentUserID, SearchTrack per song, CreatePlaylist, then
// AddTracks in chunks of [MaxTracksPerRequest]. The orchestration lives in package tasks.
//
// # Raw Requests
//
// [APIService] is the thin JSON-over-HTTP helper the Gemini client is built on.
package services
