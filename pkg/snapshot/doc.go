// Package snapshot renders a component into HTML and publishes the result.
//
// A snapshot is the serialized tree of a fresh mount, optionally after a
// scripted sequence of events has been dispatched to it. Stores keep
// snapshots by name. FileStore writes them to a directory, BoltStore keeps
// them in one bbolt database file and S3Store puts them in a bucket.
//
//	html, err := snapshot.Render(ctx, demo.Counter(), snapshot.Click("increment"))
//	loc, err := store.Save(ctx, snapshot.Snapshot{Name: "counter-1", App: "counter", HTML: html})
package snapshot
