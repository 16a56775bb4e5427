/*
The storage package provides a key/value based interface for storing HydroLake state.
Components that persist anything, such as the authority directory, use this interface
instead of talking to a database directly.

Values are opaque byte slices and keys live inside a namespace, obtained from Service.Store.
Three backends are provided: a BoltDB file, a Redis server and an in memory map.
The in memory map is intended for tests and for the CLI when no database is wanted.
*/
package storage
