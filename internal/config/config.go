// Package config provides configuration management for medviz runs
package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"unicode/utf8"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment variables mapped onto config keys
const EnvPrefix = "MEDVIZ"

// Config represents the configuration of a pipeline run
type Config struct {
	// Input
	InputPath string `json:"input_path" yaml:"input_path" mapstructure:"input_path"` // CSV or Parquet file
	Delimiter string `json:"delimiter" yaml:"delimiter" mapstructure:"delimiter"`    // CSV field delimiter

	// Figures
	OutputDir     string  `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`
	Format        string  `json:"format" yaml:"format" mapstructure:"format"` // png, svg, pdf, jpg
	CatPlotName   string  `json:"catplot_name" yaml:"catplot_name" mapstructure:"catplot_name"`
	HeatMapName   string  `json:"heatmap_name" yaml:"heatmap_name" mapstructure:"heatmap_name"`
	CatPlotWidth  float64 `json:"catplot_width" yaml:"catplot_width" mapstructure:"catplot_width"`    // inches
	CatPlotHeight float64 `json:"catplot_height" yaml:"catplot_height" mapstructure:"catplot_height"` // inches
	HeatMapWidth  float64 `json:"heatmap_width" yaml:"heatmap_width" mapstructure:"heatmap_width"`    // inches
	HeatMapHeight float64 `json:"heatmap_height" yaml:"heatmap_height" mapstructure:"heatmap_height"` // inches
	DPI           int     `json:"dpi" yaml:"dpi" mapstructure:"dpi"`                                  // raster formats only

	// Derived tables export (disabled when ExportDir is empty)
	ExportDir    string `json:"export_dir" yaml:"export_dir" mapstructure:"export_dir"`
	ExportFormat string `json:"export_format" yaml:"export_format" mapstructure:"export_format"` // csv or parquet

	// Analysis
	OverweightThreshold float64 `json:"overweight_threshold" yaml:"overweight_threshold" mapstructure:"overweight_threshold"`
	LowerQuantile       float64 `json:"lower_quantile" yaml:"lower_quantile" mapstructure:"lower_quantile"`
	UpperQuantile       float64 `json:"upper_quantile" yaml:"upper_quantile" mapstructure:"upper_quantile"`

	// Heat map styling
	HeatMapMin       float64 `json:"heatmap_min" yaml:"heatmap_min" mapstructure:"heatmap_min"`
	HeatMapMax       float64 `json:"heatmap_max" yaml:"heatmap_max" mapstructure:"heatmap_max"`
	ColorBarShrink   float64 `json:"colorbar_shrink" yaml:"colorbar_shrink" mapstructure:"colorbar_shrink"`
	AnnotationFormat string  `json:"annotation_format" yaml:"annotation_format" mapstructure:"annotation_format"`
	ShowDiagonal     bool    `json:"show_diagonal" yaml:"show_diagonal" mapstructure:"show_diagonal"`

	// Parallel processing
	ParallelThreshold int `json:"parallel_threshold" yaml:"parallel_threshold" mapstructure:"parallel_threshold"` // Minimum rows to correlate in parallel
	WorkerPoolSize    int `json:"worker_pool_size" yaml:"worker_pool_size" mapstructure:"worker_pool_size"`       // 0 = auto-detect

	// Logging and metrics
	LogLevel          string `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
	LogFormat         string `json:"log_format" yaml:"log_format" mapstructure:"log_format"` // text or json
	MetricsCollection bool   `json:"metrics_collection" yaml:"metrics_collection" mapstructure:"metrics_collection"`
}

// Default configuration values
const (
	DefaultInputPath           = "medical_examination.csv"
	DefaultDelimiter           = ","
	DefaultOutputDir           = "."
	DefaultFormat              = "png"
	DefaultCatPlotName         = "catplot"
	DefaultHeatMapName         = "heatmap"
	DefaultCatPlotWidth        = 10.0
	DefaultCatPlotHeight       = 5.0
	DefaultHeatMapWidth        = 12.0
	DefaultHeatMapHeight       = 12.0
	DefaultDPI                 = 100
	DefaultExportFormat        = "csv"
	DefaultOverweightThreshold = 25.0
	DefaultLowerQuantile       = 0.025
	DefaultUpperQuantile       = 0.975
	DefaultHeatMapMin          = 0.0
	DefaultHeatMapMax          = 0.25
	DefaultColorBarShrink      = 0.7
	DefaultAnnotationFormat    = "%.1f"
	DefaultParallelThreshold   = 1000
	DefaultLogLevel            = "info"
	DefaultLogFormat           = "text"
)

var (
	figureFormats = []string{"png", "svg", "pdf", "jpg", "jpeg", "tif", "tiff", "eps"}
	exportFormats = []string{"csv", "parquet"}
	logLevels     = []string{"debug", "info", "warn", "warning", "error"}
	logFormats    = []string{"text", "json"}
)

// NewConfig creates a new configuration with default values
func NewConfig() Config {
	return Config{
		InputPath:           DefaultInputPath,
		Delimiter:           DefaultDelimiter,
		OutputDir:           DefaultOutputDir,
		Format:              DefaultFormat,
		CatPlotName:         DefaultCatPlotName,
		HeatMapName:         DefaultHeatMapName,
		CatPlotWidth:        DefaultCatPlotWidth,
		CatPlotHeight:       DefaultCatPlotHeight,
		HeatMapWidth:        DefaultHeatMapWidth,
		HeatMapHeight:       DefaultHeatMapHeight,
		DPI:                 DefaultDPI,
		ExportFormat:        DefaultExportFormat,
		OverweightThreshold: DefaultOverweightThreshold,
		LowerQuantile:       DefaultLowerQuantile,
		UpperQuantile:       DefaultUpperQuantile,
		HeatMapMin:          DefaultHeatMapMin,
		HeatMapMax:          DefaultHeatMapMax,
		ColorBarShrink:      DefaultColorBarShrink,
		AnnotationFormat:    DefaultAnnotationFormat,
		ShowDiagonal:        false,
		ParallelThreshold:   DefaultParallelThreshold,
		WorkerPoolSize:      0, // Auto-detect
		LogLevel:            DefaultLogLevel,
		LogFormat:           DefaultLogFormat,
		MetricsCollection:   false,
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	if c.InputPath == "" {
		return fmt.Errorf("input_path must be set")
	}
	if utf8.RuneCountInString(c.Delimiter) != 1 {
		return fmt.Errorf("delimiter must be a single character, got %q", c.Delimiter)
	}
	if !oneOf(c.Format, figureFormats) {
		return fmt.Errorf("format must be one of %s, got %q", strings.Join(figureFormats, ", "), c.Format)
	}
	if c.CatPlotName == "" || c.HeatMapName == "" {
		return fmt.Errorf("catplot_name and heatmap_name must be set")
	}
	if c.CatPlotWidth <= 0 || c.CatPlotHeight <= 0 || c.HeatMapWidth <= 0 || c.HeatMapHeight <= 0 {
		return fmt.Errorf("figure sizes must be positive")
	}
	if c.DPI <= 0 {
		return fmt.Errorf("dpi must be positive, got %d", c.DPI)
	}
	if !oneOf(c.ExportFormat, exportFormats) {
		return fmt.Errorf("export_format must be csv or parquet, got %q", c.ExportFormat)
	}
	if c.OverweightThreshold <= 0 {
		return fmt.Errorf("overweight_threshold must be positive, got %g", c.OverweightThreshold)
	}
	if c.LowerQuantile < 0 || c.UpperQuantile > 1 || c.LowerQuantile > c.UpperQuantile {
		return fmt.Errorf("quantiles must satisfy 0 <= lower <= upper <= 1, got %g and %g",
			c.LowerQuantile, c.UpperQuantile)
	}
	if c.HeatMapMin >= c.HeatMapMax {
		return fmt.Errorf("heatmap_min must be below heatmap_max, got %g and %g", c.HeatMapMin, c.HeatMapMax)
	}
	if c.ColorBarShrink <= 0 || c.ColorBarShrink > 1 {
		return fmt.Errorf("colorbar_shrink must be in (0, 1], got %g", c.ColorBarShrink)
	}
	if !strings.Contains(c.AnnotationFormat, "%") {
		return fmt.Errorf("annotation_format must be a printf verb, got %q", c.AnnotationFormat)
	}
	if c.ParallelThreshold <= 0 {
		return fmt.Errorf("parallel_threshold must be positive, got %d", c.ParallelThreshold)
	}
	if c.WorkerPoolSize < 0 {
		return fmt.Errorf("worker_pool_size must be non-negative, got %d", c.WorkerPoolSize)
	}
	if !oneOf(c.LogLevel, logLevels) {
		return fmt.Errorf("log_level must be one of %s, got %q", strings.Join(logLevels, ", "), c.LogLevel)
	}
	if !oneOf(c.LogFormat, logFormats) {
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// WithDefaults returns a new configuration with default values filled in for zero values
func (c Config) WithDefaults() Config {
	d := NewConfig()

	setString := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	setFloat := func(v *float64, def float64) {
		if *v == 0 {
			*v = def
		}
	}

	setString(&c.InputPath, d.InputPath)
	setString(&c.Delimiter, d.Delimiter)
	setString(&c.OutputDir, d.OutputDir)
	setString(&c.Format, d.Format)
	setString(&c.CatPlotName, d.CatPlotName)
	setString(&c.HeatMapName, d.HeatMapName)
	setString(&c.ExportFormat, d.ExportFormat)
	setString(&c.AnnotationFormat, d.AnnotationFormat)
	setString(&c.LogLevel, d.LogLevel)
	setString(&c.LogFormat, d.LogFormat)
	setFloat(&c.CatPlotWidth, d.CatPlotWidth)
	setFloat(&c.CatPlotHeight, d.CatPlotHeight)
	setFloat(&c.HeatMapWidth, d.HeatMapWidth)
	setFloat(&c.HeatMapHeight, d.HeatMapHeight)
	setFloat(&c.OverweightThreshold, d.OverweightThreshold)
	setFloat(&c.ColorBarShrink, d.ColorBarShrink)
	if c.DPI == 0 {
		c.DPI = d.DPI
	}
	if c.ParallelThreshold == 0 {
		c.ParallelThreshold = d.ParallelThreshold
	}
	// Ranges default only when both ends are zero; zero is a valid lower end.
	if c.LowerQuantile == 0 && c.UpperQuantile == 0 {
		c.LowerQuantile, c.UpperQuantile = d.LowerQuantile, d.UpperQuantile
	}
	if c.HeatMapMin == 0 && c.HeatMapMax == 0 {
		c.HeatMapMin, c.HeatMapMax = d.HeatMapMin, d.HeatMapMax
	}

	// Boolean fields are not defaulted: false is indistinguishable from unset

	return c
}

// DelimiterRune returns the CSV delimiter as a rune
func (c Config) DelimiterRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Delimiter)
	if r == utf8.RuneError {
		return ','
	}
	return r
}

// NewViper returns a viper instance carrying every default and reading
// MEDVIZ_* environment variables.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	d := NewConfig()
	v.SetDefault("input_path", d.InputPath)
	v.SetDefault("delimiter", d.Delimiter)
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("format", d.Format)
	v.SetDefault("catplot_name", d.CatPlotName)
	v.SetDefault("heatmap_name", d.HeatMapName)
	v.SetDefault("catplot_width", d.CatPlotWidth)
	v.SetDefault("catplot_height", d.CatPlotHeight)
	v.SetDefault("heatmap_width", d.HeatMapWidth)
	v.SetDefault("heatmap_height", d.HeatMapHeight)
	v.SetDefault("dpi", d.DPI)
	v.SetDefault("export_dir", d.ExportDir)
	v.SetDefault("export_format", d.ExportFormat)
	v.SetDefault("overweight_threshold", d.OverweightThreshold)
	v.SetDefault("lower_quantile", d.LowerQuantile)
	v.SetDefault("upper_quantile", d.UpperQuantile)
	v.SetDefault("heatmap_min", d.HeatMapMin)
	v.SetDefault("heatmap_max", d.HeatMapMax)
	v.SetDefault("colorbar_shrink", d.ColorBarShrink)
	v.SetDefault("annotation_format", d.AnnotationFormat)
	v.SetDefault("show_diagonal", d.ShowDiagonal)
	v.SetDefault("parallel_threshold", d.ParallelThreshold)
	v.SetDefault("worker_pool_size", d.WorkerPoolSize)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("metrics_collection", d.MetricsCollection)
	return v
}

// Load reads the configuration from v. Precedence: flags bound to v >
// environment > config file > defaults. An empty cfgFile means no file;
// a named file that cannot be read is an error.
func Load(v *viper.Viper, cfgFile string) (Config, error) {
	if v == nil {
		v = NewViper()
	}
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file %s: %w", cfgFile, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// Marshal renders the configuration as YAML
func Marshal(c Config) ([]byte, error) {
	b, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal yaml: %w", err)
	}
	return b, nil
}

// Save writes the configuration to path as YAML
func Save(c Config, path string) error {
	b, err := Marshal(c)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil { //nolint:gosec // config files are not secret
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// ConfigValidator validates a configuration against the host and fills in
// values that depend on it
type ConfigValidator struct {
	cpuCount int
}

// NewConfigValidator creates a new configuration validator
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{cpuCount: runtime.NumCPU()}
}

// Validate validates a configuration and provides recommendations
func (cv *ConfigValidator) Validate(config Config) (Config, []string, error) {
	var warnings []string
	validated := config

	if err := config.Validate(); err != nil {
		return Config{}, warnings, err
	}

	if config.WorkerPoolSize > cv.cpuCount*2 {
		warnings = append(warnings,
			fmt.Sprintf("worker pool size (%d) exceeds 2x CPU count (%d), may cause contention",
				config.WorkerPoolSize, cv.cpuCount))
	}

	if config.WorkerPoolSize == 0 {
		validated.WorkerPoolSize = cv.cpuCount
	}

	return validated, warnings, nil
}

func oneOf(v string, options []string) bool {
	for _, o := range options {
		if strings.EqualFold(v, o) {
			return true
		}
	}
	return false
}
