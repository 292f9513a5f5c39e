// Package dupsig finds duplicate files of a given extension by content hash,
// verifying each candidate's true type against a catalog of magic-byte
// signatures before hashing.
//
// # Core API
//
// The main entry point is Finder, which owns all state for a single run:
//
//	catalog, err := dupsig.LoadCatalog()
//	finder := dupsig.NewFinder(catalog, nil)
//	report, err := finder.Run("/path/to/dir", "pdf", nil, nil)
//
// # Basic Operations
//
// A run validates the extension against the signature catalog, walks the
// directory tree, verifies every matching file's magic bytes, hashes the
// verified files, and groups them by digest:
//
//	for _, group := range report.Groups {
//		fmt.Printf("Hash %s: %v\n", group.Hash, group.Files)
//	}
//
// Files whose content does not match their claimed extension are collected
// in report.Mismatches and never hashed.
//
// # Configuration
//
// Enable debug output:
//
//	dupsig.SetDebugFlags("walk,verify")
//	dupsig.SetVerboseLevel(2)
//
// # Note on Internal API
//
// External consumers should primarily use:
//   - Finder and its Run method
//   - Catalog, LoadCatalog, and Catalog.KnownExtensions
//   - Result types: DuplicateReport, DuplicateGroup
//   - Configuration functions: SetDebugFlags, SetVerboseLevel
//
// Types like digestIndex and hashEntry are internal and may change.
package dupsig
