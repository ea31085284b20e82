// Package store is the persistence adapter for playlist documents.
//
// Every operation takes the caller's [models.Session] and only touches documents in that
// session's collection; another user's id behaves exactly like a missing one.
//
// Writes publish a change on the collection's topic ([models.Session.CollectionPath]) through
// a [Notifier]. [Store.Subscribe] turns those notifications into fresh snapshots of the
// collection. [LocalNotifier] keeps notifications in-process; [RedisNotifier] fans them out
// over redis pub/sub so a CLI edit reaches a running server.
package store
