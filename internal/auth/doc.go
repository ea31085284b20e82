// Package auth manages accounts and the signed-in session.
//
// [Accounts] signs users up and in against the users table with bcrypt password hashes and
// returns a [models.Session]. The CLI and TUI keep that session on disk with [SessionStore];
// the HTTP API carries it in an HS256 JWT ([IssueToken], [ParseToken]).
//
// Nothing in the core packages reads ambient auth state: every call that touches a user's
// collection takes the session as an argument.
package auth
