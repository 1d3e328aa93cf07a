// Package storage provides a small key/value façade for saving documents.
//
// A [Store] wraps a [Backend] and adds what every caller needs: key
// validation, a key prefix that isolates drilldown's entries from anything
// else sharing the backend, JSON helpers and structured errors.
//
// # Backends
//
//   - [Memory]: process-local map, for tests and the HTTP server's scratch space
//   - [File]: one JSON file per key under a directory
//   - [Redis]: a Redis database, via go-redis
//   - [Mongo]: a MongoDB collection, via the official driver
//   - [SQLite]: a single-file SQLite database, via go-sqlite3
//
// # Usage
//
//	st := storage.New(storage.NewMemory(), storage.DefaultPrefix)
//	if err := st.SetJSON(ctx, "ecosystem", pkg); err != nil {
//	    return err
//	}
//	var back io.Package
//	found, err := st.GetJSON(ctx, "ecosystem", &back)
//
// # Errors
//
// Invalid keys yield INVALID_KEY errors and backend failures are wrapped as
// STORAGE_ERROR (see pkg/errors). A missing key is not an error: Get reports
// found == false.
package storage
