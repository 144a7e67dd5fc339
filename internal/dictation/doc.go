// Package dictation turns recognized speech into (document ID, status) pairs.
//
// An utterance is split into tokens that are classified into a closed set of
// kinds (keyword, status word, filler, chunk) and fed to a small state
// machine. Keywords pick how the following chunks accumulate into an
// identifier (digits only, digits plus a trailing K check digit, or
// alphanumeric); status words close the identifier and emit a pair. When the
// machine yields nothing, a more permissive single-pair extractor gets a
// second look at the utterance.
//
// Parsing never fails: unrecognizable input simply produces no pairs.
package dictation
