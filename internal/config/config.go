package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// PathsConfig groups the filesystem locations used by the pipeline.
type PathsConfig struct {
	NFEInputFolder   string `mapstructure:"nfe_input_folder"`
	MasterDataFile   string `mapstructure:"master_data_file"`
	OutputFolder     string `mapstructure:"output_folder"`
	LogFolder        string `mapstructure:"log_folder"`
	SynonymCacheFile string `mapstructure:"synonym_cache_file"`
	PendingsFolder   string `mapstructure:"pendings_folder"`
	MetricsFile      string `mapstructure:"metrics_file"`
}

// MatcherConfig tunes the resolution cascade.
type MatcherConfig struct {
	Threshold       float64 `mapstructure:"threshold"`
	AmbiguityMargin float64 `mapstructure:"ambiguity_margin"`
}

// PricingConfig selects how Variant Price is computed.
type PricingConfig struct {
	Strategy     string  `mapstructure:"strategy"` // markup_fixo | tabela | somente_custo
	MarkupFactor float64 `mapstructure:"markup_factor"`
}

// CSVOutputConfig fixes the output file naming and column order.
type CSVOutputConfig struct {
	FilenamePrefix string   `mapstructure:"filename_prefix"`
	Delimiter      string   `mapstructure:"delimiter"`
	Columns        []string `mapstructure:"columns"`
}

// MetafieldsConfig maps logical field names onto output metafield keys.
type MetafieldsConfig struct {
	Namespace string            `mapstructure:"namespace"`
	Keys      map[string]string `mapstructure:"keys"`
}

// TagsConfig controls tag sanitisation.
type TagsConfig struct {
	DropShortCodes bool `mapstructure:"drop_short_codes"`
	MinAlphaLen    int  `mapstructure:"min_alpha_len"`
}

// ExportConfig holds remaining export knobs.
type ExportConfig struct {
	Status        string `mapstructure:"status"` // active | draft
	DefaultVendor string `mapstructure:"default_vendor"`
}

// WatchConfig drives the watched-folder mode.
type WatchConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	RunAt           string `mapstructure:"run_at"` // HH:MM, empty = interval polling
	IntervalMinutes int    `mapstructure:"interval_minutes"`
}

// ServerConfig is the HTTP surface.
type ServerConfig struct {
	Host         string   `mapstructure:"host"`
	Port         int      `mapstructure:"port"`
	AllowOrigins []string `mapstructure:"allow_origins"`
	MaxUploadMB  int      `mapstructure:"max_upload_mb"`
}

// LogConfig configures zerolog output.
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// Settings is the full configuration surface of the importer.
type Settings struct {
	Paths              PathsConfig      `mapstructure:"paths"`
	Matcher            MatcherConfig    `mapstructure:"matcher"`
	Pricing            PricingConfig    `mapstructure:"pricing"`
	CSVOutput          CSVOutputConfig  `mapstructure:"csv_output"`
	Metafields         MetafieldsConfig `mapstructure:"metafields"`
	CriticalMetafields []string         `mapstructure:"critical_metafields"`
	Tags               TagsConfig       `mapstructure:"tags"`
	Export             ExportConfig     `mapstructure:"export"`
	Watch              WatchConfig      `mapstructure:"watch"`
	Server             ServerConfig     `mapstructure:"server"`
	Log                LogConfig        `mapstructure:"log"`
}

func (s Settings) Addr() string { return fmt.Sprintf("%s:%d", s.Server.Host, s.Server.Port) }

// MetafieldColumn builds the full output column name for a metafield key.
func (s Settings) MetafieldColumn(key string) string {
	return fmt.Sprintf("product.metafields.%s.%s", s.Metafields.Namespace, key)
}

// Load reads the YAML configuration, applies defaults and env
// overrides (NFE_ prefix), and validates the structural preconditions.
func Load(path string) (Settings, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("nfe")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// missing file is fine: defaults plus env cover a full config
	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return Settings{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return Settings{}, fmt.Errorf("decode config: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

// Default returns settings with every default applied and no file
// read. Used by tests and as a base for programmatic construction.
func Default() Settings {
	v := viper.New()
	setDefaults(v)
	var settings Settings
	_ = v.Unmarshal(&settings)
	return settings
}

// Validate enforces the required keys; a violation names the missing
// key so a run aborts with the precondition, not a generic error.
func (s Settings) Validate() error {
	switch {
	case s.Paths.MasterDataFile == "":
		return fmt.Errorf("config: missing required key paths.master_data_file")
	case s.Paths.OutputFolder == "":
		return fmt.Errorf("config: missing required key paths.output_folder")
	case s.Paths.SynonymCacheFile == "":
		return fmt.Errorf("config: missing required key paths.synonym_cache_file")
	case len(s.CSVOutput.Columns) == 0:
		return fmt.Errorf("config: missing required key csv_output.columns")
	}
	switch s.Pricing.Strategy {
	case "markup_fixo", "tabela", "somente_custo":
	default:
		return fmt.Errorf("config: unsupported pricing.strategy %q", s.Pricing.Strategy)
	}
	if s.Pricing.Strategy == "markup_fixo" && s.Pricing.MarkupFactor <= 0 {
		return fmt.Errorf("config: pricing.markup_factor must be greater than zero")
	}
	if s.Watch.IntervalMinutes <= 0 {
		return fmt.Errorf("config: watch.interval_minutes must be greater than zero")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// registered empty so env overrides bind without a config file
	v.SetDefault("paths.master_data_file", "")

	v.SetDefault("paths.nfe_input_folder", "data/input")
	v.SetDefault("paths.output_folder", "data/output")
	v.SetDefault("paths.log_folder", "logs")
	v.SetDefault("paths.synonym_cache_file", "data/synonyms.json")
	v.SetDefault("paths.metrics_file", "logs/metrics.json")

	v.SetDefault("matcher.threshold", 0.92)
	v.SetDefault("matcher.ambiguity_margin", 0.03)

	v.SetDefault("pricing.strategy", "markup_fixo")
	v.SetDefault("pricing.markup_factor", 2.2)

	v.SetDefault("csv_output.filename_prefix", "importacao_produtos_")
	v.SetDefault("csv_output.delimiter", ",")
	v.SetDefault("csv_output.columns", DefaultColumns)

	v.SetDefault("metafields.namespace", "custom")
	v.SetDefault("metafields.keys", DefaultMetafieldKeys)
	v.SetDefault("critical_metafields", DefaultCriticalMetafields)

	v.SetDefault("tags.drop_short_codes", true)
	v.SetDefault("tags.min_alpha_len", 3)

	v.SetDefault("export.status", "draft")

	v.SetDefault("watch.enabled", false)
	v.SetDefault("watch.interval_minutes", 15)

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8082)
	v.SetDefault("server.allow_origins", []string{"*"})
	v.SetDefault("server.max_upload_mb", 256)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "logs/nfe-importer.log")
}
