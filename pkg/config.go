package recursivehasher

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/docker/go-units"
	"github.com/go-ini/ini"
)

// Config represents the rhash configuration
type Config struct {
	configPath string
	ini        *ini.File
}

// HashConfig represents hash algorithm configuration
type HashConfig struct {
	Default string // Default hash algorithm
}

// OutputConfig represents where results are written
type OutputConfig struct {
	ResultsDir  string // Folder receiving datasets and copied differences
	MaxAttempts int    // Filename collision retry limit
}

// VerboseConfig represents verbosity configuration
type VerboseConfig struct {
	Level  int    // Default verbose level (0=quiet, 1=basic, 2=detailed, 3=trace)
	Debug  string // Default debug flags (comma-separated)
	Format string // Log format: text, json
}

// SymlinkConfig represents symlink handling configuration
type SymlinkConfig struct {
	Mode string // Symlink mode: none, contained, all
}

// PerformanceConfig represents performance-related configuration
type PerformanceConfig struct {
	HashWorkers int    // Number of concurrent hash workers (0 = one per CPU)
	HashBuffer  string // Read buffer per hash worker (default: "2M")
	CopyWorkers int    // Number of concurrent copy workers (default: 4)
}

// CompareConfig represents comparison configuration
type CompareConfig struct {
	Timeout time.Duration // Upper bound for one comparison
}

// ScanConfig represents enumeration configuration
type ScanConfig struct {
	Exclude []string // doublestar globs relative to the scanned root
}

// AllConfig represents all configuration options
type AllConfig struct {
	Hash        *HashConfig
	Output      *OutputConfig
	Verbose     *VerboseConfig
	Symlink     *SymlinkConfig
	Performance *PerformanceConfig
	Compare     *CompareConfig
	Scan        *ScanConfig
}

// DefaultConfigDir returns $XDG_CONFIG_HOME/rhash, falling back to ~/.config/rhash
func DefaultConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "rhash")
	}
	return filepath.Join(".", ".rhash")
}

// DefaultResultsDir returns ~/RecursiveHasher, falling back to the working directory
func DefaultResultsDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, "RecursiveHasher")
	}
	return "RecursiveHasher"
}

// LoadConfig loads configuration from <configDir>/config, creating defaults on first use
func LoadConfig(configDir string) (*Config, error) {
	configPath := filepath.Join(configDir, "config")

	cfg := &Config{
		configPath: configPath,
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg.ini = ini.Empty()
		if err := cfg.setDefaults(); err != nil {
			return nil, fmt.Errorf("failed to set default config: %w", err)
		}
		if err := os.MkdirAll(configDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}
		if err := cfg.Save(); err != nil {
			return nil, fmt.Errorf("failed to save default config: %w", err)
		}
	} else {
		iniFile, err := ini.Load(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
		cfg.ini = iniFile
	}

	return cfg, nil
}

// NewDefaultConfig returns an in-memory configuration holding the defaults
func NewDefaultConfig() *Config {
	cfg := &Config{ini: ini.Empty()}
	if err := cfg.setDefaults(); err != nil {
		// Only fails on duplicate section/key names, which setDefaults never produces
		panic(err)
	}
	return cfg
}

// setDefaults sets default configuration values
func (c *Config) setDefaults() error {
	defaults := []struct {
		section string
		key     string
		value   string
	}{
		{"filehash", "default", DefaultHashAlgorithm},
		{"output", "results_dir", DefaultResultsDir()},
		{"output", "max_attempts", fmt.Sprintf("%d", DefaultMaxAttempts)},
		{"verbose", "level", "0"},
		{"verbose", "debug", ""},
		{"verbose", "format", "text"},
		{"symlink", "mode", DefaultSymlinkMode},
		{"performance", "hash_workers", "0"},
		{"performance", "hash_buffer", DefaultHashBuffer},
		{"performance", "copy_workers", fmt.Sprintf("%d", DefaultCopyWorkers)},
		{"compare", "timeout", DefaultCompareTimeout.String()},
		{"scan", "exclude", ""},
	}

	for _, d := range defaults {
		section, err := c.ini.GetSection(d.section)
		if err != nil {
			section, err = c.ini.NewSection(d.section)
			if err != nil {
				return fmt.Errorf("failed to create %s section: %w", d.section, err)
			}
		}
		if _, err := section.NewKey(d.key, d.value); err != nil {
			return fmt.Errorf("failed to set default %s.%s: %w", d.section, d.key, err)
		}
	}

	return nil
}

// GetHashConfig returns the hash configuration
func (c *Config) GetHashConfig() *HashConfig {
	hashConfig := &HashConfig{
		Default: DefaultHashAlgorithm,
	}

	if c.ini.HasSection("filehash") {
		section := c.ini.Section("filehash")
		if section.HasKey("default") {
			if v := section.Key("default").String(); v != "" {
				hashConfig.Default = v
			}
		}
	}

	return hashConfig
}

// GetOutputConfig returns the output configuration
func (c *Config) GetOutputConfig() *OutputConfig {
	outputConfig := &OutputConfig{
		ResultsDir:  DefaultResultsDir(),
		MaxAttempts: DefaultMaxAttempts,
	}

	if c.ini.HasSection("output") {
		section := c.ini.Section("output")
		if section.HasKey("results_dir") {
			if dir := section.Key("results_dir").String(); dir != "" {
				outputConfig.ResultsDir = dir
			}
		}
		if section.HasKey("max_attempts") {
			if attempts, err := section.Key("max_attempts").Int(); err == nil && attempts > 0 {
				outputConfig.MaxAttempts = attempts
			}
		}
	}

	return outputConfig
}

// GetVerboseConfig returns the verbose configuration
func (c *Config) GetVerboseConfig() *VerboseConfig {
	verboseConfig := &VerboseConfig{
		Level:  0,
		Debug:  "",
		Format: "text",
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
		if section.HasKey("format") {
			if format := section.Key("format").String(); format != "" {
				verboseConfig.Format = format
			}
		}
	}

	return verboseConfig
}

// GetSymlinkConfig returns the symlink configuration
func (c *Config) GetSymlinkConfig() *SymlinkConfig {
	symlinkConfig := &SymlinkConfig{
		Mode: DefaultSymlinkMode,
	}

	if c.ini.HasSection("symlink") {
		section := c.ini.Section("symlink")
		if section.HasKey("mode") {
			if mode := section.Key("mode").String(); mode != "" {
				symlinkConfig.Mode = mode
			}
		}
	}

	return symlinkConfig
}

// GetPerformanceConfig returns the performance configuration
func (c *Config) GetPerformanceConfig() *PerformanceConfig {
	performanceConfig := &PerformanceConfig{
		HashWorkers: 0,
		HashBuffer:  DefaultHashBuffer,
		CopyWorkers: DefaultCopyWorkers,
	}

	if c.ini.HasSection("performance") {
		section := c.ini.Section("performance")
		if section.HasKey("hash_workers") {
			if workers, err := section.Key("hash_workers").Int(); err == nil {
				performanceConfig.HashWorkers = workers
			}
		}
		if section.HasKey("hash_buffer") {
			if bufferSize := section.Key("hash_buffer").String(); bufferSize != "" {
				performanceConfig.HashBuffer = bufferSize
			}
		}
		if section.HasKey("copy_workers") {
			if workers, err := section.Key("copy_workers").Int(); err == nil && workers > 0 {
				performanceConfig.CopyWorkers = workers
			}
		}
	}

	return performanceConfig
}

// EffectiveHashWorkers resolves a configured worker count, 0 meaning one per CPU
func (p *PerformanceConfig) EffectiveHashWorkers() int {
	if p.HashWorkers <= 0 {
		return runtime.NumCPU()
	}
	return p.HashWorkers
}

// HashBufferBytes parses HashBuffer, falling back to 2MiB when unparseable
func (p *PerformanceConfig) HashBufferBytes() int {
	size, err := ParseHumanSize(p.HashBuffer)
	if err != nil {
		return fallbackHashBufferSize
	}
	return size
}

// GetCompareConfig returns the comparison configuration
func (c *Config) GetCompareConfig() *CompareConfig {
	compareConfig := &CompareConfig{
		Timeout: DefaultCompareTimeout,
	}

	if c.ini.HasSection("compare") {
		section := c.ini.Section("compare")
		if section.HasKey("timeout") {
			if timeout, err := section.Key("timeout").Duration(); err == nil && timeout > 0 {
				compareConfig.Timeout = timeout
			}
		}
	}

	return compareConfig
}

// GetScanConfig returns the enumeration configuration
func (c *Config) GetScanConfig() *ScanConfig {
	scanConfig := &ScanConfig{}

	if c.ini.HasSection("scan") {
		section := c.ini.Section("scan")
		if section.HasKey("exclude") {
			for _, pattern := range section.Key("exclude").Strings(",") {
				if pattern = strings.TrimSpace(pattern); pattern != "" {
					scanConfig.Exclude = append(scanConfig.Exclude, pattern)
				}
			}
		}
	}

	return scanConfig
}

// GetAllConfig returns all configuration options
func (c *Config) GetAllConfig() *AllConfig {
	return &AllConfig{
		Hash:        c.GetHashConfig(),
		Output:      c.GetOutputConfig(),
		Verbose:     c.GetVerboseConfig(),
		Symlink:     c.GetSymlinkConfig(),
		Performance: c.GetPerformanceConfig(),
		Compare:     c.GetCompareConfig(),
		Scan:        c.GetScanConfig(),
	}
}

// Save saves the configuration to disk
func (c *Config) Save() error {
	if c.configPath == "" {
		return fmt.Errorf("config has no backing file")
	}
	return c.ini.SaveTo(c.configPath)
}

// overrideKeys maps override names onto section/key pairs
var overrideKeys = map[string][2]string{
	"default":      {"filehash", "default"},
	"results_dir":  {"output", "results_dir"},
	"max_attempts": {"output", "max_attempts"},
	"level":        {"verbose", "level"},
	"debug":        {"verbose", "debug"},
	"format":       {"verbose", "format"},
	"mode":         {"symlink", "mode"},
	"hash_workers": {"performance", "hash_workers"},
	"hash_buffer":  {"performance", "hash_buffer"},
	"copy_workers": {"performance", "copy_workers"},
	"timeout":      {"compare", "timeout"},
	"exclude":      {"scan", "exclude"},
}

// ApplyOverrides applies command-line overrides to the configuration
// Accepts strings like "default:sha256", "level:2", "timeout:10m"
func (c *Config) ApplyOverrides(overrides []string) error {
	for _, override := range overrides {
		parts := strings.SplitN(override, ":", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid override format '%s', expected 'key:value'", override)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		target, ok := overrideKeys[key]
		if !ok {
			return fmt.Errorf("unsupported override key '%s'", key)
		}
		c.ini.Section(target[0]).Key(target[1]).SetValue(value)
	}

	return nil
}

// Validate checks every section for unsupported values
func (c *Config) Validate() error {
	all := c.GetAllConfig()
	if err := ValidateHashAlgorithm(all.Hash.Default); err != nil {
		return err
	}
	if err := ValidateVerboseLevel(all.Verbose.Level); err != nil {
		return err
	}
	if err := ValidateSymlinkMode(all.Symlink.Mode); err != nil {
		return err
	}
	if err := ValidateHashWorkers(all.Performance.HashWorkers); err != nil {
		return err
	}
	if _, err := ParseHumanSize(all.Performance.HashBuffer); err != nil {
		return fmt.Errorf("invalid hash buffer: %w", err)
	}
	return nil
}

// ValidateHashAlgorithm validates that a hash algorithm is supported
func ValidateHashAlgorithm(algorithm string) error {
	if _, ok := HashSizeFromName(algorithm); !ok {
		return fmt.Errorf("unsupported hash algorithm: %s (supported: md5, sha1, sha256, sha512)", algorithm)
	}
	return nil
}

// ValidateVerboseLevel validates that a verbose level is valid
func ValidateVerboseLevel(level int) error {
	if level < 0 || level > 3 {
		return fmt.Errorf("invalid verbose level: %d (supported: 0-3)", level)
	}
	return nil
}

// ValidateSymlinkMode validates that a symlink mode is supported
func ValidateSymlinkMode(mode string) error {
	switch strings.ToLower(mode) {
	case "all", "contained", "none":
		return nil
	default:
		return fmt.Errorf("unsupported symlink mode: %s (supported: all, contained, none)", mode)
	}
}

// ValidateHashWorkers validates that the hash worker count is reasonable; 0 means one per CPU
func ValidateHashWorkers(workers int) error {
	if workers < 0 {
		return fmt.Errorf("hash workers must not be negative, got: %d", workers)
	}
	if workers > 256 {
		return fmt.Errorf("hash workers should not exceed 256, got: %d", workers)
	}
	return nil
}

// ParseHumanSize parses human-readable size strings (e.g., "2M", "512k", "1G") as binary units
func ParseHumanSize(sizeStr string) (int, error) {
	if strings.TrimSpace(sizeStr) == "" {
		return 0, fmt.Errorf("empty size string")
	}
	size, err := units.RAMInBytes(strings.TrimSpace(sizeStr))
	if err != nil {
		return 0, fmt.Errorf("invalid size string %s: %w", sizeStr, err)
	}
	if size <= 0 {
		return 0, fmt.Errorf("size must be positive: %s", sizeStr)
	}
	if size > int64(^uint(0)>>1) {
		return 0, fmt.Errorf("size too large: %s", sizeStr)
	}
	return int(size), nil
}
