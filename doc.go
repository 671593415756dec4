// Package coredb implements the storage and execution core of a
// teaching-grade relational database engine: a fixed-size buffer pool with
// clock (second-chance) replacement, and a persistent linear-probing hash
// index whose header and data blocks are themselves pages managed by the
// buffer pool.
//
// A thin execution layer (package coredb/internal/exec) is included only as
// a collaborator contract: it exercises the hash index and buffer pool via
// sequential scan, insert, hash-join, and aggregation pull-iterators.
//
// Out of scope: crash recovery, durability ordering beyond explicit flush,
// MVCC, query planning/optimization, multi-table transactions, and secondary
// data structures beyond the hash index.
package coredb
