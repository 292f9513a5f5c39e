package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	dupsig "github.com/mattkeenan/dupsig/pkg"
)

var (
	cyan      = color.New(color.FgCyan)
	green     = color.New(color.FgGreen)
	red       = color.New(color.FgRed)
	magenta   = color.New(color.FgMagenta)
	lightBlue = color.New(color.FgHiBlue)
)

func glyphFound() string      { return green.Sprint("✔") }
func glyphInvalid() string    { return red.Sprint("✖") }
func glyphProcessing() string { return cyan.Sprint("⮩") }

func printBanner() {
	banner := `
    ____              _____ _
   / __ \__  ______  / ___/(_)___ _
  / / / / / / / __ \ \__ \/ / __ '/
 / /_/ / /_/ / /_/ /___/ / / /_/ /
/_____/\__,_/ .___//____/_/\__, /
           /_/            /____/
`
	cyan.Fprintln(os.Stderr, banner)
}

// progressRenderer drives the console progress line from the core's
// streaming progress callback. Nothing is printed during validation, so an
// unknown extension fails without leaving a dangling progress line.
type progressRenderer struct {
	out       io.Writer
	directory string
	extension string
	total     int
	announced bool
	counted   bool
	active    bool
}

func newProgressRenderer(directory, extension string) *progressRenderer {
	return &progressRenderer{out: os.Stdout, directory: directory, extension: extension}
}

func (pr *progressRenderer) update(p dupsig.Progress) {
	switch p.Phase {
	case dupsig.PhaseCounting:
		// The counting phase only starts once the extension has passed
		// validation, so this is the first moment worth announcing.
		if !pr.announced {
			fmt.Fprintf(pr.out, "%s Scanning: %s for '%s' files\n", glyphProcessing(), pr.directory, pr.extension)
			fmt.Fprintf(pr.out, "%s Getting file count... ", glyphProcessing())
			pr.announced = true
		}
		pr.total = p.TotalFiles
		if p.TotalFiles > 0 {
			pr.printCount(p.TotalFiles)
		}
	case dupsig.PhaseScanning:
		pr.active = true
		if pr.total > 0 {
			pct := p.Processed * 100 / pr.total
			fmt.Fprintf(pr.out, "\r%s Processing %d/%d files (%d%%)", glyphProcessing(), p.Processed, pr.total, pct)
		}
	case dupsig.PhaseGrouping, dupsig.PhaseDone:
		// An empty tree skips straight past scanning; close out the
		// count line so the console stays coherent.
		pr.printCount(pr.total)
	}
}

func (pr *progressRenderer) printCount(total int) {
	if pr.announced && !pr.counted {
		fmt.Fprintf(pr.out, "%d files\n", total)
		pr.counted = true
	}
}

func (pr *progressRenderer) finish() {
	if pr.active {
		fmt.Fprintln(pr.out)
	}
}

// renderReport prints the duplicate table, summary counts, and the mismatch
// listing to the console.
func renderReport(report *dupsig.DuplicateReport) {
	if !report.HasDuplicates() {
		fmt.Println("\nNo duplicates found.")
		printMismatches(report)
		return
	}

	fmt.Println()
	printDuplicateTable(report)

	fmt.Printf("%s Unique file hashes: %d of %d\n",
		glyphFound(), len(report.Groups), report.DuplicateFileCount())

	printMismatches(report)
}

// printDuplicateTable renders the File/Hash table with a group's rows
// contiguous, paths cyan and digests magenta.
func printDuplicateTable(report *dupsig.DuplicateReport) {
	fileWidth := len("File")
	for _, group := range report.Groups {
		for _, file := range group.Files {
			if len(file) > fileWidth {
				fileWidth = len(file)
			}
		}
	}
	hashWidth := len(report.Groups[0].Hash)
	if hashWidth < len("Hash") {
		hashWidth = len("Hash")
	}

	rule := "+" + strings.Repeat("-", fileWidth+2) + "+" + strings.Repeat("-", hashWidth+2) + "+"
	fmt.Println(rule)
	fmt.Printf("| %-*s | %-*s |\n", fileWidth, "File", hashWidth, "Hash")
	fmt.Println(rule)
	for _, group := range report.Groups {
		for _, file := range group.Files {
			fmt.Printf("| %s | %s |\n",
				cyan.Sprintf("%-*s", fileWidth, file),
				magenta.Sprintf("%-*s", hashWidth, group.Hash))
		}
	}
	fmt.Println(rule)
}

func printMismatches(report *dupsig.DuplicateReport) {
	if len(report.Mismatches) == 0 {
		return
	}

	separator := lightBlue.Sprint(strings.Repeat("-", 70))
	fmt.Printf("\nUnable to validate the file signature for the following '%s' files:\n%s\n",
		report.Extension, separator)
	for num, filename := range report.Mismatches {
		fmt.Printf("  [%d] %s %s\n", num+1, glyphInvalid(), filename)
	}
}

func printExportNotice(csvPath string) {
	fmt.Printf("%s Duplicate matches written to: %s\n", glyphFound(), csvPath)
}

// printExtensions prints the supported-extension listing, wrapped for the
// console.
func printExtensions(extensions []string) {
	fmt.Println("Supported extensions:")
	const width = 60
	line := ""
	for _, ext := range extensions {
		if line != "" && len(line)+len(ext)+2 > width {
			fmt.Println("  " + line)
			line = ""
		}
		if line != "" {
			line += ", "
		}
		line += ext
	}
	if line != "" {
		fmt.Println("  " + line)
	}
}
