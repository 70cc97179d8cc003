// Package segsort provides a massively-parallel segmented radix sort:
// many independent, variable-length, non-overlapping sub-ranges
// ("segments") of one key array are each sorted by key, ascending or
// descending, optionally carrying a paired value array.
//
// The engine is built for workloads with thousands to millions of
// unevenly sized segments, where a single per-segment strategy is either
// underutilized on tiny segments or memory-hungry on huge ones. Segments
// are classified once per call:
//
//   - Large segments each get a dedicated execution group running the
//     full multi-pass radix digit sort (histogram, prefix sum, scatter
//     per pass, ping-ponging between two buffers).
//   - Small segments are batched many per execution group and sorted in
//     one macro-pass while fully resident in group-local storage.
//
// # Two-phase temporary storage
//
// Every sort call follows the same convention: called with a nil scratch
// buffer it only reports the exact byte requirement; called again with
// that buffer (and identical arguments) it sorts.
//
//	var tempBytes int
//	segsort.SortKeys[int32](nil, &tempBytes, keys, out, offsets[:n], offsets[1:])
//	temp := make([]byte, tempBytes)
//	segsort.SortKeys[int32](temp, &tempBytes, keys, out, offsets[:n], offsets[1:])
//	stream.Default().Synchronize()
//
// # Execution model
//
// Kernels are submitted to a stream (see the stream subpackage) and run
// asynchronously; operations on one stream execute in submission order.
// Results are ready once the stream has been synchronized. A failed
// kernel faults the stream permanently.
//
// # Ordering
//
// The sort is stable: values of equal keys keep their input relative
// order, also under descending order and restricted bit ranges. Float
// keys order as -NaN < -Inf < ... < -0 < +0 < ... < +Inf < +NaN.
package segsort
