package dupsig

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-ini/ini"
)

// Config represents the dupsig configuration, backed by an optional ini file.
// A missing config file yields in-memory defaults: a read-only scanner never
// writes to the user's home directory.
type Config struct {
	configPath string
	ini        *ini.File
}

// HashConfig represents hash algorithm configuration
type HashConfig struct {
	Default string // Default hash algorithm: sha1, sha256, sha512
	HexCase string // Digest hex case: lower, upper
}

// OutputConfig represents output format configuration
type OutputConfig struct {
	Format  string // Default output format: table, csv
	CSVPath string // Default CSV export path
}

// VerboseConfig represents verbosity configuration
type VerboseConfig struct {
	Level int    // Default verbose level (0=quiet, 1=basic, 2=detailed, 3=trace)
	Debug string // Default debug flags (comma-separated)
}

// PerformanceConfig represents performance-related configuration
type PerformanceConfig struct {
	HashBuffer string // Hash chunk size for interruptible hashing (default: "64K")
}

// DefaultConfig returns a configuration holding only built-in defaults.
func DefaultConfig() *Config {
	return &Config{ini: ini.Empty()}
}

// DefaultConfigPath returns the per-user config file location.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".dupsig", "config")
}

// LoadConfig loads configuration from the given ini file path. An empty path
// means the default location; a missing file is not an error.
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = DefaultConfigPath()
	}

	cfg := &Config{configPath: configPath}

	if configPath == "" {
		cfg.ini = ini.Empty()
		return cfg, nil
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg.ini = ini.Empty()
		return cfg, nil
	}

	iniFile, err := ini.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
	}
	cfg.ini = iniFile
	return cfg, nil
}

// SetHashDefault overrides the configured hash algorithm, e.g. from a
// command-line flag. Overrides are in-memory only.
func (c *Config) SetHashDefault(name string) {
	c.ini.Section("hash").Key("default").SetValue(strings.ToLower(name))
}

// SetHashHexCase overrides the configured digest hex case.
func (c *Config) SetHashHexCase(hexCase string) {
	c.ini.Section("hash").Key("hexcase").SetValue(strings.ToLower(hexCase))
}

// GetHashConfig returns the hash configuration
func (c *Config) GetHashConfig() *HashConfig {
	hashConfig := &HashConfig{
		Default: "sha256", // fallback default
		HexCase: "lower",  // canonical digest case
	}

	if c.ini.HasSection("hash") {
		section := c.ini.Section("hash")
		if section.HasKey("default") {
			hashConfig.Default = section.Key("default").String()
		}
		if section.HasKey("hexcase") {
			hexCase := strings.ToLower(section.Key("hexcase").String())
			if hexCase == "lower" || hexCase == "upper" {
				hashConfig.HexCase = hexCase
			}
		}
	}

	return hashConfig
}

// GetOutputConfig returns the output configuration
func (c *Config) GetOutputConfig() *OutputConfig {
	outputConfig := &OutputConfig{
		Format:  "table", // fallback default
		CSVPath: "duplicate_matches.csv",
	}

	if c.ini.HasSection("output") {
		section := c.ini.Section("output")
		if section.HasKey("format") {
			outputConfig.Format = section.Key("format").String()
		}
		if section.HasKey("csv_path") {
			outputConfig.CSVPath = section.Key("csv_path").String()
		}
	}

	return outputConfig
}

// GetVerboseConfig returns the verbose configuration
func (c *Config) GetVerboseConfig() *VerboseConfig {
	verboseConfig := &VerboseConfig{
		Level: 0,
		Debug: "",
	}

	if c.ini.HasSection("verbose") {
		section := c.ini.Section("verbose")
		if section.HasKey("level") {
			if level, err := section.Key("level").Int(); err == nil {
				verboseConfig.Level = level
			}
		}
		if section.HasKey("debug") {
			verboseConfig.Debug = section.Key("debug").String()
		}
	}

	return verboseConfig
}

// GetPerformanceConfig returns the performance configuration
func (c *Config) GetPerformanceConfig() *PerformanceConfig {
	performanceConfig := &PerformanceConfig{
		HashBuffer: "64K", // fallback default
	}

	if c.ini.HasSection("performance") {
		section := c.ini.Section("performance")
		if section.HasKey("hash_buffer") {
			performanceConfig.HashBuffer = section.Key("hash_buffer").String()
		}
	}

	return performanceConfig
}

// HashBufferSize resolves the configured hash chunk size in bytes.
func (c *Config) HashBufferSize() int {
	size, err := ParseHumanSize(c.GetPerformanceConfig().HashBuffer)
	if err != nil || size <= 0 {
		return DefaultHashBufferSize
	}
	return size
}

// ParseHumanSize parses a human-readable size string like "64K" or "2MB"
// into a byte count.
func ParseHumanSize(sizeStr string) (int, error) {
	if sizeStr == "" {
		return 0, fmt.Errorf("empty size string")
	}

	sizeStr = strings.ToUpper(strings.TrimSpace(sizeStr))

	var numPart string
	var suffix string
	for i, char := range sizeStr {
		if char >= '0' && char <= '9' || char == '.' {
			numPart += string(char)
		} else {
			suffix = sizeStr[i:]
			break
		}
	}

	if numPart == "" {
		return 0, fmt.Errorf("no numeric part in size string: %s", sizeStr)
	}

	num, err := strconv.ParseFloat(numPart, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid numeric part in size string %s: %w", sizeStr, err)
	}

	var multiplier int64 = 1
	switch suffix {
	case "", "B":
		multiplier = 1
	case "K", "KB":
		multiplier = 1024
	case "M", "MB":
		multiplier = 1024 * 1024
	case "G", "GB":
		multiplier = 1024 * 1024 * 1024
	default:
		return 0, fmt.Errorf("unknown size suffix in %s", sizeStr)
	}

	return int(num * float64(multiplier)), nil
}
