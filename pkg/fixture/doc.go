// Package fixture generates batches of records from schemas.
//
// A Runner wraps package generator with the things a batch needs: a record
// count, an optional expr-lang predicate that records must satisfy, stable
// per-file seeding and bounded concurrency across many schema files.
//
//	runner, err := fixture.NewRunner(fixture.Options{
//	    Count: 100,
//	    Where: `it.status == "paid" && it.total > 100`,
//	    Seed:  42, Seeded: true,
//	})
//	records, err := runner.Generate(ctx, node)
package fixture
