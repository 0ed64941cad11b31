// Package pattern compiles Redis glob patterns into byte DFAs.
//
// The glob dialect is the one KEYS accepts: `*`, `?`, `[...]` character
// classes (ranges and `^` negation) and backslash escapes. A pattern
// becomes a position-set NFA that is determinized lazily: distinct
// position sets are interned as DFA states and each state fills its
// 256-entry transition row on demand. The empty position set is the
// single dead state, which lets a tree walk prune entire subtrees the
// moment a branch can no longer match.
package pattern
