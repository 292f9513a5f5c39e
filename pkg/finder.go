package dupsig

import (
	"fmt"
	"os"
)

// RunPhase identifies where a run is in its lifecycle.
type RunPhase int

const (
	PhaseIdle RunPhase = iota
	PhaseValidating
	PhaseCounting
	PhaseScanning
	PhaseGrouping
	PhaseDone
	PhaseAborted
)

func (p RunPhase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseValidating:
		return "validating"
	case PhaseCounting:
		return "counting"
	case PhaseScanning:
		return "scanning"
	case PhaseGrouping:
		return "grouping"
	case PhaseDone:
		return "done"
	case PhaseAborted:
		return "aborted"
	default:
		return "invalid"
	}
}

// Progress is the streaming progress surface exposed to the presentation
// layer. TotalFiles comes from the counting pass and is best-effort only:
// a tree mutating mid-run may make it disagree with the scan.
type Progress struct {
	Phase      RunPhase
	TotalFiles int    // files seen by the counting pass
	Processed  int    // files examined so far during scanning
	Path       string // file currently being examined, if any
}

// ProgressFunc receives progress updates during a run. It is called from the
// run's own goroutine; implementations should return quickly.
type ProgressFunc func(Progress)

// DuplicateGroup represents a group of files with the same hash
type DuplicateGroup struct {
	Hash  string   `json:"hash"`
	Files []string `json:"files"`
	Count int      `json:"count"`
}

// DuplicateReport is the immutable result of one completed run.
type DuplicateReport struct {
	Directory     string           `json:"directory"`
	Extension     string           `json:"extension"`
	HashAlgorithm string           `json:"hash_algorithm"`
	TotalFiles    int              `json:"total_files"`    // every file the counting pass saw
	Candidates    int              `json:"candidates"`     // files whose suffix matched the extension
	TotalHashed   int              `json:"total_hashed"`   // candidates accepted by verification and hashed
	UniqueDigests int              `json:"unique_digests"` // distinct digests among hashed files
	Groups        []DuplicateGroup `json:"groups"`         // buckets of size >= 2, digest-ordered
	Mismatches    []string         `json:"mismatches"`     // candidates whose content failed verification
}

// HasDuplicates reports whether any digest bucket holds two or more files.
func (r *DuplicateReport) HasDuplicates() bool {
	return len(r.Groups) > 0
}

// DuplicateFileCount returns the total number of files across all duplicate
// groups, one export row per file.
func (r *DuplicateReport) DuplicateFileCount() int {
	total := 0
	for _, group := range r.Groups {
		total += group.Count
	}
	return total
}

// Finder orchestrates one duplicate-detection run: walk, verify, hash,
// group. All accumulator state is instance-scoped, so separate Finder
// instances (and sequential runs on one instance) never share state.
type Finder struct {
	catalog  *Catalog
	config   *Config
	verifier *Verifier
}

// NewFinder creates a finder backed by a loaded catalog. A nil config means
// built-in defaults (sha256, lowercase hex, 64 KiB chunks).
func NewFinder(catalog *Catalog, config *Config) *Finder {
	if config == nil {
		config = DefaultConfig()
	}
	return &Finder{
		catalog:  catalog,
		config:   config,
		verifier: NewVerifier(catalog),
	}
}

// Run scans the directory tree for duplicate files of the given extension.
//
// The run proceeds through validating, counting, scanning, and grouping
// phases. An unknown extension aborts before any file I/O with an
// UnknownExtensionError. Per-file verification failures are collected in the
// report's mismatch list; an I/O failure while hashing aborts the run, since
// a partial digest would corrupt grouping. A closed shutdown channel aborts
// with ErrInterrupted and no report.
func (f *Finder) Run(directory, extension string, shutdownChan <-chan struct{}, progress ProgressFunc) (*DuplicateReport, error) {
	defer VerboseEnter()()

	if progress == nil {
		progress = func(Progress) {}
	}

	// Validating: the extension must have a catalog rule before any
	// scanning work begins.
	progress(Progress{Phase: PhaseValidating})
	ext := NormalizeExtension(extension)
	if !f.catalog.Knows(ext) {
		return nil, &UnknownExtensionError{Extension: ext, Known: f.catalog.KnownExtensions()}
	}

	hashConfig := f.config.GetHashConfig()
	algorithm, err := GetHashAlgorithm(hashConfig.Default)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve hash algorithm: %w", err)
	}
	bufferSize := f.config.HashBufferSize()

	info, err := os.Stat(directory)
	if err != nil {
		return nil, fmt.Errorf("failed to stat directory %s: %w", directory, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", directory)
	}

	walker, err := NewWalker(directory)
	if err != nil {
		return nil, err
	}

	// Counting: one full walk to establish the total for progress
	// reporting. Best-effort only; correctness never depends on it.
	progress(Progress{Phase: PhaseCounting})
	totalFiles, err := walker.Count(shutdownChan)
	if err != nil {
		return nil, err
	}
	VerboseLog(1, "counted %d files under %s", totalFiles, walker.Root())
	progress(Progress{Phase: PhaseCounting, TotalFiles: totalFiles})

	// Scanning: re-walk, filter by suffix, verify, hash.
	index := newDigestIndex()
	var mismatches []string
	candidates := 0
	processed := 0

	resultChan := make(chan string, 256)
	walkErrChan := make(chan error, 1)
	go func() {
		walkErrChan <- walker.Walk(resultChan, shutdownChan)
	}()

	for path := range resultChan {
		processed++
		progress(Progress{Phase: PhaseScanning, TotalFiles: totalFiles, Processed: processed, Path: path})

		if !HasSuffixExtension(path, ext) {
			continue
		}
		candidates++

		switch f.verifier.Verify(path, ext) {
		case Accepted:
			digest, err := HashFileToHexString(path, algorithm, bufferSize, hashConfig.HexCase, shutdownChan)
			if err == ErrInterrupted {
				// Drain the walker so its goroutine can exit.
				for range resultChan {
				}
				<-walkErrChan
				return nil, ErrInterrupted
			}
			if err != nil {
				for range resultChan {
				}
				<-walkErrChan
				return nil, &HashIOError{Path: path, Err: err}
			}
			index.Insert(digest, path)
		case SignatureMismatch:
			if IsDebugEnabled("scan") {
				VerboseLog(2, "scan: signature mismatch for %s", path)
			}
			mismatches = append(mismatches, path)
		case ExtensionUnknown:
			// Unreachable: the extension was validated before scanning.
			for range resultChan {
			}
			<-walkErrChan
			return nil, &UnknownExtensionError{Extension: ext, Known: f.catalog.KnownExtensions()}
		}
	}

	if err := <-walkErrChan; err != nil {
		return nil, err
	}

	// Grouping: select digest buckets with two or more members.
	progress(Progress{Phase: PhaseGrouping, TotalFiles: totalFiles, Processed: processed})

	allGroups := index.Groups()
	var duplicates []DuplicateGroup
	for _, group := range allGroups {
		if group.Count > 1 {
			duplicates = append(duplicates, group)
		}
	}

	report := &DuplicateReport{
		Directory:     walker.Root(),
		Extension:     ext,
		HashAlgorithm: algorithm.Name,
		TotalFiles:    totalFiles,
		Candidates:    candidates,
		TotalHashed:   index.Len(),
		UniqueDigests: len(allGroups),
		Groups:        duplicates,
		Mismatches:    mismatches,
	}

	progress(Progress{Phase: PhaseDone, TotalFiles: totalFiles, Processed: processed})
	return report, nil
}
