package dupsig

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"
)

func newTestFinder(t *testing.T) *Finder {
	t.Helper()
	catalog, err := LoadCatalog()
	if err != nil {
		t.Fatalf("Failed to load catalog: %v", err)
	}
	return NewFinder(catalog, nil)
}

// TestFinder_Run_DuplicateScenario covers the canonical case: two identical
// valid PDFs, one unique valid PDF, and one text file wearing a .pdf name.
func TestFinder_Run_DuplicateScenario(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "a.pdf", pdfContent("shared content"))
	writeTestFile(t, dir, "b.pdf", pdfContent("shared content"))
	writeTestFile(t, dir, "c.pdf", pdfContent("different content"))
	writeTestFile(t, dir, "d.pdf", []byte("plain text pretending to be a pdf"))

	finder := newTestFinder(t)
	report, err := finder.Run(dir, "pdf", nil, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(report.Groups) != 1 {
		t.Fatalf("Expected exactly 1 duplicate group, got %d", len(report.Groups))
	}

	group := report.Groups[0]
	wantFiles := []string{filepath.Join(dir, "a.pdf"), filepath.Join(dir, "b.pdf")}
	sort.Strings(wantFiles)
	if !reflect.DeepEqual(group.Files, wantFiles) {
		t.Errorf("Expected duplicate group %v, got %v", wantFiles, group.Files)
	}
	if group.Count != 2 {
		t.Errorf("Expected count 2, got %d", group.Count)
	}

	// c.pdf is unique: hashed, but absent from any duplicate group.
	for _, file := range group.Files {
		if filepath.Base(file) == "c.pdf" {
			t.Error("Unique file c.pdf must not appear in a duplicate group")
		}
	}

	// d.pdf failed verification: in the mismatch list, never hashed.
	wantMismatches := []string{filepath.Join(dir, "d.pdf")}
	if !reflect.DeepEqual(report.Mismatches, wantMismatches) {
		t.Errorf("Expected mismatches %v, got %v", wantMismatches, report.Mismatches)
	}

	if report.TotalHashed != 3 {
		t.Errorf("Expected 3 hashed files, got %d", report.TotalHashed)
	}
	if report.UniqueDigests != 2 {
		t.Errorf("Expected 2 unique digests, got %d", report.UniqueDigests)
	}
	if report.Candidates != 4 {
		t.Errorf("Expected 4 candidates, got %d", report.Candidates)
	}
}

func TestFinder_Run_EmptyDirectory(t *testing.T) {
	finder := newTestFinder(t)
	report, err := finder.Run(t.TempDir(), "pdf", nil, nil)
	if err != nil {
		t.Fatalf("Run on empty directory must not fail: %v", err)
	}

	if report.HasDuplicates() {
		t.Errorf("Expected no duplicates in empty directory, got %d groups", len(report.Groups))
	}
	if report.TotalHashed != 0 || report.TotalFiles != 0 {
		t.Errorf("Expected empty report, got %+v", report)
	}
}

func TestFinder_Run_UnknownExtensionAbortsBeforeScanning(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "a.xyzzy", []byte("whatever"))

	finder := newTestFinder(t)

	var phases []RunPhase
	report, err := finder.Run(dir, "xyzzy", nil, func(p Progress) {
		phases = append(phases, p.Phase)
	})

	if report != nil {
		t.Error("Expected no report for unknown extension")
	}

	var unknownExt *UnknownExtensionError
	if !errors.As(err, &unknownExt) {
		t.Fatalf("Expected UnknownExtensionError, got %v", err)
	}
	if unknownExt.Extension != "xyzzy" {
		t.Errorf("Expected extension 'xyzzy' in error, got %q", unknownExt.Extension)
	}
	if len(unknownExt.Known) == 0 {
		t.Error("Expected the known-extension list in the error")
	}

	// The abort happens in the validating phase, before any walking.
	for _, phase := range phases {
		if phase == PhaseCounting || phase == PhaseScanning {
			t.Errorf("Run reached phase %v despite unknown extension", phase)
		}
	}
}

func TestFinder_Run_Idempotent(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "a.pdf", pdfContent("same"))
	writeTestFile(t, dir, "b.pdf", pdfContent("same"))
	writeTestFile(t, dir, "c.pdf", pdfContent("other"))

	finder := newTestFinder(t)

	first, err := finder.Run(dir, "pdf", nil, nil)
	if err != nil {
		t.Fatalf("First run failed: %v", err)
	}
	second, err := finder.Run(dir, "pdf", nil, nil)
	if err != nil {
		t.Fatalf("Second run failed: %v", err)
	}

	if !reflect.DeepEqual(first.Groups, second.Groups) {
		t.Errorf("Bucket membership differs across runs: %+v vs %+v", first.Groups, second.Groups)
	}
	if !reflect.DeepEqual(first.Mismatches, second.Mismatches) {
		t.Errorf("Mismatch lists differ across runs")
	}
}

func TestFinder_Run_HiddenDirectoriesNeverScanned(t *testing.T) {
	dir := t.TempDir()
	hidden := filepath.Join(dir, ".cache")
	if err := os.MkdirAll(hidden, 0755); err != nil {
		t.Fatalf("Failed to create hidden dir: %v", err)
	}
	writeTestFile(t, hidden, "x.pdf", pdfContent("dup"))
	writeTestFile(t, hidden, "y.pdf", pdfContent("dup"))
	writeTestFile(t, hidden, "z.pdf", []byte("mismatch text"))

	finder := newTestFinder(t)
	report, err := finder.Run(dir, "pdf", nil, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// Files under hidden directories appear nowhere: not in groups, not
	// in the mismatch list.
	if report.HasDuplicates() {
		t.Errorf("Hidden files grouped: %+v", report.Groups)
	}
	if len(report.Mismatches) != 0 {
		t.Errorf("Hidden files in mismatch list: %v", report.Mismatches)
	}
	if report.TotalHashed != 0 {
		t.Errorf("Hidden files were hashed: %d", report.TotalHashed)
	}
}

func TestFinder_Run_SymlinkedRoot(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "real")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}
	writeTestFile(t, dir, "a.pdf", pdfContent("same"))
	writeTestFile(t, dir, "b.pdf", pdfContent("same"))

	link := filepath.Join(base, "link")
	if err := os.Symlink(dir, link); err != nil {
		t.Skipf("Symlinks not supported: %v", err)
	}

	finder := newTestFinder(t)

	direct, err := finder.Run(dir, "pdf", nil, nil)
	if err != nil {
		t.Fatalf("Run on real root failed: %v", err)
	}
	viaLink, err := finder.Run(link, "pdf", nil, nil)
	if err != nil {
		t.Fatalf("Run on symlinked root failed: %v", err)
	}

	// A root given as a symlink scans the tree it points at, so both runs
	// must see the same files and find the same duplicate group.
	if viaLink.TotalFiles != direct.TotalFiles {
		t.Errorf("Symlinked root saw %d files, real root saw %d", viaLink.TotalFiles, direct.TotalFiles)
	}
	if len(viaLink.Groups) != 1 {
		t.Fatalf("Expected 1 duplicate group through symlinked root, got %d", len(viaLink.Groups))
	}
	if viaLink.Groups[0].Hash != direct.Groups[0].Hash {
		t.Errorf("Digest differs between real and symlinked root")
	}
}

func TestFinder_Run_SuffixFilter(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "a.pdf", pdfContent("x"))
	// Valid PNG content under a different extension: never a candidate
	// for a pdf run.
	pngHeader := append([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, make([]byte, 64)...)
	writeTestFile(t, dir, "b.png", pngHeader)

	finder := newTestFinder(t)
	report, err := finder.Run(dir, "pdf", nil, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if report.Candidates != 1 {
		t.Errorf("Expected 1 candidate, got %d", report.Candidates)
	}
	if report.TotalFiles != 2 {
		t.Errorf("Expected 2 total files from counting pass, got %d", report.TotalFiles)
	}
}

func TestFinder_Run_Interrupted(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "a.pdf", pdfContent("x"))

	shutdown := make(chan struct{})
	close(shutdown)

	finder := newTestFinder(t)
	report, err := finder.Run(dir, "pdf", shutdown, nil)

	if report != nil {
		t.Error("Expected no report for an interrupted run")
	}
	if !errors.Is(err, ErrInterrupted) {
		t.Errorf("Expected ErrInterrupted, got %v", err)
	}
}

func TestFinder_Run_NotADirectory(t *testing.T) {
	dir := t.TempDir()
	file := writeTestFile(t, dir, "a.pdf", pdfContent("x"))

	finder := newTestFinder(t)
	if _, err := finder.Run(file, "pdf", nil, nil); err == nil {
		t.Error("Expected error when target is not a directory")
	}
}

func TestFinder_Run_ProgressPhases(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "a.pdf", pdfContent("x"))

	finder := newTestFinder(t)

	seen := make(map[RunPhase]bool)
	_, err := finder.Run(dir, "pdf", nil, func(p Progress) {
		seen[p.Phase] = true
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for _, phase := range []RunPhase{PhaseValidating, PhaseCounting, PhaseScanning, PhaseGrouping, PhaseDone} {
		if !seen[phase] {
			t.Errorf("Progress never reported phase %v", phase)
		}
	}
}

func TestFinder_Run_UppercaseHexConfig(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "a.pdf", pdfContent("same"))
	writeTestFile(t, dir, "b.pdf", pdfContent("same"))

	catalog, err := LoadCatalog()
	if err != nil {
		t.Fatalf("Failed to load catalog: %v", err)
	}
	config := DefaultConfig()
	config.SetHashHexCase("upper")

	finder := NewFinder(catalog, config)
	report, err := finder.Run(dir, "pdf", nil, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(report.Groups) != 1 {
		t.Fatalf("Expected 1 group, got %d", len(report.Groups))
	}
	for _, c := range report.Groups[0].Hash {
		if c >= 'a' && c <= 'f' {
			t.Errorf("Expected uppercase digest, got %s", report.Groups[0].Hash)
			break
		}
	}
}

func TestDuplicateReport_Accessors(t *testing.T) {
	report := &DuplicateReport{
		Groups: []DuplicateGroup{
			{Hash: "aa", Files: []string{"1", "2"}, Count: 2},
			{Hash: "bb", Files: []string{"3", "4", "5"}, Count: 3},
		},
	}
	if !report.HasDuplicates() {
		t.Error("Expected HasDuplicates to be true")
	}
	if report.DuplicateFileCount() != 5 {
		t.Errorf("Expected 5 duplicate files, got %d", report.DuplicateFileCount())
	}

	empty := &DuplicateReport{}
	if empty.HasDuplicates() {
		t.Error("Expected HasDuplicates to be false for empty report")
	}
}
