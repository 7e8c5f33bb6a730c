// Package recursivehasher records a content digest for every file under a
// directory tree and compares two such recordings to find files that were
// altered, added or removed.
//
// # Core API
//
// A Session bundles configuration, the exception sink and the hash algorithm:
//
//	session, err := recursivehasher.NewSession(recursivehasher.NewDefaultConfig(), nil)
//	defer session.Close()
//
// Hash a tree and save FileHashes_<name>.csv in the results directory:
//
//	res, err := session.AnalyzeDirectory("/srv/backup")
//	fmt.Printf("%d files, %d failed\n", res.Files(), res.Failed)
//
// Compare two datasets and save Differences_<A>_vs_<B>.csv, copying the
// differing files when asked:
//
//	cmp, err := session.CompareDatasets(ctx, "FileHashes_a.csv", "FileHashes_b.csv", true)
//	if cmp.HasChanges() {
//		fmt.Printf("Found %d differences\n", cmp.TotalChanges())
//	}
//
// # Building blocks
//
// The stages are usable on their own: PathEnumerator lists files,
// HashWorkerPool hashes them with bounded concurrency, SaveDataset and
// LoadDataset persist records, Compare and CompareWithTimeout find
// differences, and ResultCopier copies differing files without overwriting.
//
// Per-file and per-directory failures never abort a run. They are recorded
// as failure digests and as ExceptionRecords on an ExceptionSink, which a
// presentation layer drains at its own pace alongside a polled Progress.
//
// # Configuration
//
// Enable debug output:
//
//	recursivehasher.SetDebugFlags("enumeration,hashing")
//	recursivehasher.SetVerboseLevel(2)
package recursivehasher
