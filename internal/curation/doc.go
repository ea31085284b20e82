// Package curation holds the list manipulation behind the playlist wizard.
//
//   - [Reorder] : pure move of one element to a new index
//   - [Collection] : capped, case-insensitive string sets (tags, seed songs, fusion genres)
//   - [WorkingSet] : the ordered song list with duplicate confirmation and note editing
//   - [Filter] : drops generative candidates already present in the playlist or seeds
//
// Nothing in this package is safe for concurrent use; the wizard serializes access.
package curation
