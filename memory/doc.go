// Package memory holds per-conversation message history between turns.
//
// A Message pairs a stable identifier with the provider message param it
// wraps; the identifier is what the history trimmer removes by. Store is
// the persistence seam: MapStore keeps everything in process memory and
// copies on both read and write so callers never share backing slices.
package memory
