// Package exec implements the pull-based execution operators (SeqScan,
// Insert, HashJoin, Aggregate) that sit above the storage layer.
//
// Tuple, Schema, TableHeap and Predicate are minimal collaborator-shaped
// types: enough to construct and unit-test the operators without a real
// tuple codec, expression evaluator, or catalog.
package exec
