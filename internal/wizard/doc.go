// Package wizard implements the three-step playlist editor.
//
// A [Wizard] is started for a signed-in session in one of three modes:
//
//   - create: an empty draft
//   - update: an existing playlist; the save keeps its createdAt and archive flag
//   - remix: a copy of an existing playlist with "Remix of " prepended to the theme, saved as
//     a new document
//
// The steps are Foundation (theme, tags), Curation (seed songs, preferences, AI suggestions,
// the working set) and Final Touches (liner notes, cover art, visibility, save). Moving forward
// is guarded: Foundation needs a theme and Curation needs at least one song.
//
// Every action reports failures as a transient [Notice] and returns the error, leaving the
// wizard as it was. Results of generative and persistence calls that arrive after the wizard
// was restarted or closed are dropped with [ErrStale].
package wizard
