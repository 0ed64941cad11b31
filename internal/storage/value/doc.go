// Package value implements the polymorphic values stored in the radix tree.
//
// A Value is a tagged union over the Redis value families: the string
// family (raw bytes or a native int64), hashes, sets and sorted sets.
// The collections are adaptive: they start as sorted linear arrays and
// promote to B-tree backed forms once they grow past a fixed threshold.
// Results are identical in both forms; only the asymptotics change.
package value
