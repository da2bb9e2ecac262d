// Package nachricht encodes and decodes the nachricht binary interchange
// format: a self-describing, schema-optional encoding in the family of
// msgpack and CBOR, distinguished by a built-in symbol table that
// deduplicates repeated record layouts and atom-like strings. Repetitive
// data pays for its field names and enum constants only once; every later
// occurrence is a reference, one byte long for the first 24 table entries
// and two bytes long up to entry 255.
//
// The package exposes two surfaces. Encode, EncodeTo, Decode and
// DecodeAll move Value trees of the generic data model. Marshal and
// Unmarshal map arbitrary Go values through reflection without building
// an intermediate tree.
//
// An encode or decode call is one session: it owns its symbol table and
// shares nothing with other sessions. Decoded byte strings alias the
// input buffer, so the buffer must outlive the result; copy explicitly
// when it does not.
package nachricht
