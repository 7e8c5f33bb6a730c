package recursivehasher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// ComparisonSets holds the three difference lists of a comparison. Every
// record carries exactly one diff tag.
type ComparisonSets struct {
	Mismatches   Dataset // in B, name found in A but never with the same digest
	MissingFromA Dataset // in B, no record in A with the same name
	MissingFromB Dataset // in A, no record in B with the same name
}

// Union returns all differing records: mismatches, then missing from A, then missing from B
func (cs *ComparisonSets) Union() Dataset {
	if cs == nil {
		return nil
	}
	return lo.Flatten([]Dataset{cs.Mismatches, cs.MissingFromA, cs.MissingFromB})
}

// Total returns the number of differing records
func (cs *ComparisonSets) Total() int {
	if cs == nil {
		return 0
	}
	return len(cs.Mismatches) + len(cs.MissingFromA) + len(cs.MissingFromB)
}

// Compare finds the differences between datasets a and b. Files are matched by
// base name only, since the datasets usually come from different roots; when
// several records share a name, a match against any of them counts.
//
// The three passes run concurrently and only read a and b. If ctx ends first
// the error is returned and no partial sets are.
func Compare(ctx context.Context, a, b Dataset, labelA, labelB string) (*ComparisonSets, error) {
	defer VerboseEnter()()

	var mismatches, missingFromA, missingFromB Dataset
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		mismatches, err = hashMismatchPass(gctx, a, b, labelA)
		return err
	})
	g.Go(func() error {
		var err error
		missingFromA, err = missingPass(gctx, b, a, labelB, labelA)
		return err
	})
	g.Go(func() error {
		var err error
		missingFromB, err = missingPass(gctx, a, b, labelA, labelB)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	// A pass may finish just as the deadline hits; results after that are not trusted
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sets := &ComparisonSets{
		Mismatches:   mismatches,
		MissingFromA: missingFromA,
		MissingFromB: missingFromB,
	}
	VerboseLog(1, "Compared %s (%d records) with %s (%d records): %d mismatches, %d missing from %s, %d missing from %s",
		labelA, len(a), labelB, len(b), len(mismatches), len(missingFromA), labelA, len(missingFromB), labelB)
	return sets, nil
}

// CompareWithTimeout runs Compare bounded by timeout (<= 0 selects the default).
// Running out of time yields ErrCompareTimeout, whether the bound that fired
// was timeout or a deadline already carried by ctx.
func CompareWithTimeout(ctx context.Context, a, b Dataset, labelA, labelB string, timeout time.Duration) (*ComparisonSets, error) {
	if timeout <= 0 {
		timeout = DefaultCompareTimeout
	}
	ctx, cancel := context.WithTimeoutCause(ctx, timeout, fmt.Errorf("%w after %s", ErrCompareTimeout, timeout))
	defer cancel()

	sets, err := Compare(ctx, a, b, labelA, labelB)
	if errors.Is(err, context.DeadlineExceeded) {
		cause := context.Cause(ctx)
		if errors.Is(cause, ErrCompareTimeout) {
			return nil, cause
		}
		return nil, fmt.Errorf("%w: %w", ErrCompareTimeout, cause)
	}
	if err != nil {
		return nil, fmt.Errorf("comparison failed: %w", err)
	}
	return sets, nil
}

// hashMismatchPass tags every record of b whose name occurs in a but never with
// the same digest. Names absent from a are left to the missing pass so that
// each record gets a single tag.
func hashMismatchPass(ctx context.Context, a, b Dataset, labelA string) (Dataset, error) {
	index, err := buildRecordIndex(ctx, a, labelA, nameDigestKey)
	if err != nil {
		return nil, err
	}
	names, err := buildRecordIndex(ctx, a, labelA, nameKey)
	if err != nil {
		return nil, err
	}

	var out Dataset
	for i := range b {
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		other, source := names.Find(nameKey(&b[i]))
		if other != nil && !index.Contains(nameDigestKey(&b[i])) {
			debugLog(StageCompare, "%s: digest %s differs from %s in %s", b[i].Path, b[i].Digest, other.Path, source)
			out = append(out, b[i].withTag(DiffHashMismatch))
		}
	}
	debugLog(StageCompare, "hash pass: %d of %d records unmatched", len(out), len(b))
	return out, nil
}

// missingPass tags every record of from whose name does not occur in other
func missingPass(ctx context.Context, from, other Dataset, fromLabel, otherLabel string) (Dataset, error) {
	index, err := buildRecordIndex(ctx, other, otherLabel, nameKey)
	if err != nil {
		return nil, err
	}

	tag := MissingFromTag(otherLabel)
	var out Dataset
	for i := range from {
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if !index.Contains(nameKey(&from[i])) {
			out = append(out, from[i].withTag(tag))
		}
	}
	debugLog(StageCompare, "%s records missing from %s: %d", fromLabel, otherLabel, len(out))
	return out, nil
}
