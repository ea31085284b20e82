// Package server exposes the dashboard over HTTP and handles the Spotify OAuth callback.
//
// # Routing
//
// [NewRouter] builds a chi router with panic recovery, request logging and GET /health, then
// mounts each [Handler]. Handlers register their own routes.
//
// # API
//
// [API] serves:
//
//	POST   /api/auth/token               email/password -> JWT
//	GET    /api/playlists                {active, archived}
//	GET    /api/playlists/stream         websocket snapshots
//	GET    /api/playlists/{id}
//	POST   /api/playlists/{id}/archive
//	POST   /api/playlists/{id}/unarchive
//	DELETE /api/playlists/{id}
//
// Every /api/playlists route requires a token issued by /api/auth/token, sent as a Bearer
// header or, for websockets, as the access_token query parameter.
//
// # OAuth callback
//
// [OAuthHandler] validates the state parameter, exchanges the authorization code and sends
// the token through a channel. It accepts a single callback.
package server
