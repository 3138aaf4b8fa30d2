// Package flat provides a file-based IndexStore with exact L2 search.
//
// Each collection is a directory under the store root:
//
//	<root>/<collection-id>/
//	    manifest.yaml   metadata, dimensions, committed row count and text length
//	    vectors.bin     16-byte header then little-endian float32 rows
//	    chunks.jsonl    one JSON string per line, parallel to vectors.bin
//
// Row i of vectors.bin belongs to line i of chunks.jsonl. Persist appends new rows
// to both data files and then atomically replaces the manifest, so the manifest
// is the commit point: on open, anything past the committed counts is truncated.
//
// Concurrent writers from separate processes are not supported.
package flat
