// Package textutil provides the small text helpers shared by the dictation
// grammar, the attendance store and the exporters: accent folding for
// spoken-word matching, display-name casing and filesystem-safe tokens.
package textutil
