// Package pgvector implements the index store on PostgreSQL with the vector extension.
//
// Collections live in two tables: manualqa_collections holds metadata and
// manualqa_chunks holds chunk text with its embedding. Each Add runs in one
// transaction, so a rejected or failed batch leaves the collection unchanged.
// Search orders by the L2 operator (<->).
package pgvector
