package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	dupsig "github.com/mattkeenan/dupsig/pkg"
)

type cliOptions struct {
	configPath string
	hashName   string
	hexCase    string
	csvPath    string
	verbose    int
	debugFlags string
	listExts   bool
	noBanner   bool
}

func main() {
	os.Exit(run())
}

func run() int {
	var opts cliOptions
	exitCode := 0

	rootCmd := &cobra.Command{
		Use:   "dupsig DIRECTORY EXTENSION",
		Short: "Find duplicate files by content hash, verified by magic-byte signature",
		Long: "dupsig scans a directory tree for files of a given extension, verifies each\n" +
			"candidate's magic-byte signature against a built-in catalog, hashes the\n" +
			"verified files, and reports groups sharing an identical content digest.",
		Args:          cobra.RangeArgs(0, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := execute(&opts, args)
			exitCode = code
			return err
		},
	}

	rootCmd.Flags().StringVar(&opts.configPath, "config", "", "Config file path (default ~/.dupsig/config)")
	rootCmd.Flags().StringVar(&opts.hashName, "hash", "", "Hash algorithm (sha1/sha256/sha512)")
	rootCmd.Flags().StringVar(&opts.hexCase, "hex-case", "", "Digest hex case (lower/upper)")
	rootCmd.Flags().StringVar(&opts.csvPath, "csv", "", "Export duplicate groups to a CSV file")
	rootCmd.Flags().IntVarP(&opts.verbose, "verbose", "v", 0, "Verbose level (0-3)")
	rootCmd.Flags().StringVar(&opts.debugFlags, "debug", "", "Debug flags (comma-separated: walk,verify,scan)")
	rootCmd.Flags().BoolVar(&opts.listExts, "list-extensions", false, "List supported extensions and exit")
	rootCmd.Flags().BoolVar(&opts.noBanner, "no-banner", false, "Suppress the startup banner")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "dupsig: %v\n", err)
		if exitCode == 0 {
			exitCode = 1
		}
	}
	return exitCode
}

// execute maps core outcomes to exit codes: 0 success (including no
// duplicates), 1 for catalog/extension/hash failures, 130 on interrupt.
func execute(opts *cliOptions, args []string) (int, error) {
	if !opts.noBanner {
		printBanner()
	}

	catalog, err := dupsig.LoadCatalog()
	if err != nil {
		return 1, err
	}

	if opts.listExts {
		printExtensions(catalog.KnownExtensions())
		return 0, nil
	}

	if len(args) != 2 {
		return 1, errors.New("expected arguments: DIRECTORY EXTENSION")
	}
	directory, extension := args[0], args[1]

	config, err := dupsig.LoadConfig(opts.configPath)
	if err != nil {
		return 1, err
	}
	applyOverrides(config, opts)

	verboseConfig := config.GetVerboseConfig()
	level := verboseConfig.Level
	if opts.verbose > 0 {
		level = opts.verbose
	}
	dupsig.SetVerboseLevel(level)
	debug := verboseConfig.Debug
	if opts.debugFlags != "" {
		debug = opts.debugFlags
	}
	dupsig.SetDebugFlags(debug)

	shutdownChan := setupSignalHandler()

	finder := dupsig.NewFinder(catalog, config)
	renderer := newProgressRenderer(directory, extension)

	report, err := finder.Run(directory, extension, shutdownChan, renderer.update)
	renderer.finish()

	if err != nil {
		var unknownExt *dupsig.UnknownExtensionError
		if errors.As(err, &unknownExt) {
			printExtensions(unknownExt.Known)
			return 1, unknownExt
		}
		if errors.Is(err, dupsig.ErrInterrupted) {
			return 130, err
		}
		return 1, err
	}

	renderReport(report)

	csvPath := opts.csvPath
	if csvPath == "" && config.GetOutputConfig().Format == "csv" {
		csvPath = config.GetOutputConfig().CSVPath
	}
	if csvPath != "" && report.HasDuplicates() {
		if err := dupsig.ExportCSV(report, csvPath); err != nil {
			return 1, err
		}
		printExportNotice(csvPath)
	}

	return 0, nil
}

// applyOverrides folds command-line flags into the loaded config by writing
// them into the underlying ini sections, so the core sees one merged view.
func applyOverrides(config *dupsig.Config, opts *cliOptions) {
	if opts.hashName != "" {
		config.SetHashDefault(opts.hashName)
	}
	if opts.hexCase != "" {
		config.SetHashHexCase(opts.hexCase)
	}
}
