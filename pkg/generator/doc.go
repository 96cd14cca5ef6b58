// Package generator produces synthetic values that satisfy a schema.Node.
//
// Values use the encoding/json decoded value model: int, float64, string,
// bool, []any and map[string]any. Unknown or absent types produce nil.
//
// # Usage
//
//	node, err := schema.ParseBytes(data)
//	if err != nil {
//	    return err
//	}
//	gen := generator.New(generator.WithSeed(42))
//	value, err := gen.Generate(node)
//
// # Distributions
//
//   - integer: uniform over [minimum, maximum], both ends inclusive
//   - number: uniform over [minimum, maximum)
//   - string: uniform pick from enum, else length uniform over
//     [minLength, maxLength] with characters drawn from Alphabet
//   - boolean: fair coin
//   - array: length uniform over [minItems, maxItems]
//   - object: required properties always, others with probability 0.5
//
// # Randomness
//
// All sampling goes through the Rand interface. WithSeed gives reproducible
// output; the default source is math/rand/v2's global generator, which is
// safe for concurrent use. A Generator holds no other mutable state, so one
// instance may serve many goroutines when its Rand is concurrency-safe
// (see LockedRand).
//
// # uniqueItems
//
// Arrays with uniqueItems draw until they hold the requested number of
// distinct values (compared by canonical JSON encoding). When the item schema
// cannot produce enough distinct values, the draw gives up after
// MaxUniqueAttempts consecutive duplicates and returns a
// *CannotSatisfyUniquenessError. WithMaxUniqueAttempts(0) removes the cap, in
// which case an impossible request never returns.
package generator
