package dupsig

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/google/vectorio"
	"golang.org/x/sys/unix"
)

// ExportCSV writes the duplicate report as a two-column CSV (File, Hash),
// one row per file belonging to a duplicate group, with a group's rows
// contiguous. The file is written to a temp path, synced, and atomically
// renamed into place, so readers never observe a partial export.
func ExportCSV(report *DuplicateReport, outputPath string) error {
	defer VerboseEnter()()

	rows, err := buildCSVRows(report)
	if err != nil {
		return err
	}

	tempPath := fmt.Sprintf("%s.tmp-%d", outputPath, os.Getpid())

	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create export directory %s: %w", dir, err)
		}
	}

	file, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create export file %s: %w", tempPath, err)
	}

	if err := writeRowsVectored(file, rows); err != nil {
		file.Close()
		os.Remove(tempPath)
		return err
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync export file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close export file: %w", err)
	}

	if err := os.Rename(tempPath, outputPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename export file into place: %w", err)
	}

	VerboseLog(1, "exported %d duplicate rows to %s", len(rows)-1, outputPath)
	return nil
}

// buildCSVRows encodes the header and one row per duplicate file.
func buildCSVRows(report *DuplicateReport) ([][]byte, error) {
	rows := make([][]byte, 0, report.DuplicateFileCount()+1)

	header, err := encodeCSVRow([]string{"File", "Hash"})
	if err != nil {
		return nil, err
	}
	rows = append(rows, header)

	for _, group := range report.Groups {
		for _, file := range group.Files {
			row, err := encodeCSVRow([]string{file, group.Hash})
			if err != nil {
				return nil, err
			}
			rows = append(rows, row)
		}
	}

	return rows, nil
}

// encodeCSVRow renders one record with proper CSV quoting.
func encodeCSVRow(fields []string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(fields); err != nil {
		return nil, fmt.Errorf("failed to encode csv row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv row: %w", err)
	}
	return buf.Bytes(), nil
}

// writeRowsVectored writes all rows with writev, chunked to respect the
// system IOV_MAX limit.
func writeRowsVectored(file *os.File, rows [][]byte) error {
	iovecs := make([]syscall.Iovec, 0, len(rows))
	totalSize := 0
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		iovecs = append(iovecs, syscall.Iovec{
			Base: &row[0],
			Len:  uint64(len(row)),
		})
		totalSize += len(row)
	}
	if len(iovecs) == 0 {
		return nil
	}

	maxIovecs := systemIOVMax()
	totalWritten := 0

	for offset := 0; offset < len(iovecs); offset += maxIovecs {
		end := offset + maxIovecs
		if end > len(iovecs) {
			end = len(iovecs)
		}

		chunk := iovecs[offset:end]
		nw, err := vectorio.WritevRaw(uintptr(file.Fd()), chunk)
		if err != nil {
			return fmt.Errorf("failed to write rows with vectorio: %w", err)
		}
		totalWritten += nw
	}

	if totalWritten != totalSize {
		return fmt.Errorf("export write incomplete: wrote %d bytes, expected %d", totalWritten, totalSize)
	}
	return nil
}

// systemIOVMax returns the system's IOV_MAX limit using sysconf(_SC_IOV_MAX),
// falling back to a conservative default when sysconf is unavailable.
func systemIOVMax() int {
	const scIOVMax = 60         // _SC_IOV_MAX on Linux
	const fallbackIOVMax = 1024 // conservative default per golang/go#58623

	// Call sysconf directly using unix.Syscall (syscall 99 on Linux)
	r1, _, errno := unix.Syscall(99, uintptr(scIOVMax), 0, 0)
	if errno != 0 {
		return fallbackIOVMax
	}

	iovMax := int(r1)
	if iovMax <= 0 || iovMax > 1<<20 {
		return fallbackIOVMax
	}
	return iovMax
}
