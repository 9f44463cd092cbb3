// Package statehub exposes a reactive object over HTTP.
//
// Clients read and write top-level keys with plain REST calls and subscribe
// to changes over a WebSocket. Every write is posted to a reactive.Loop, so
// the engine stays on one goroutine. A post-flush watcher over a snapshot of
// the state diffs consecutive snapshots and broadcasts one event per changed
// key; several writes in one loop task produce one batch.
//
// # Routes
//
//	GET    /state        full snapshot and version
//	GET    /state/{key}  one value, 404 if absent
//	PUT    /state/{key}  JSON body replaces the value
//	DELETE /state/{key}  removes the key, 404 if absent
//	GET    /ws           change feed
//	GET    /stats        engine and subscriber counts
//
// # Change Feed
//
// A new subscriber first receives a "snapshot" event, then "set" and
// "delete" events in version order. Subscribers that fall behind by more
// than the send buffer are disconnected.
package statehub
