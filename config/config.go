package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/andreas-weise/individual-variation/analysis"
	"github.com/andreas-weise/individual-variation/feature"
	"github.com/andreas-weise/individual-variation/measure"
	"github.com/andreas-weise/individual-variation/normalize"
)

// EnvPrefix prefixes environment overrides, e.g. ENTRAIN_DATABASE_DSN.
const EnvPrefix = "ENTRAIN"

var ErrUnknownDriver = errors.New("unknown database driver")

type Service struct {
	URL     string `yaml:"url" mapstructure:"url"`
	Timeout int    `yaml:"timeout" mapstructure:"timeout"` // seconds
}
type Services struct {
	Extraction    Service `yaml:"extraction" mapstructure:"extraction"`
	Visualization Service `yaml:"visualization" mapstructure:"visualization"`
}
type Analysis struct {
	Corpus        string     `yaml:"corpus" mapstructure:"corpus"`
	Normalization string     `yaml:"normalization" mapstructure:"normalization"`
	Measures      []string   `yaml:"measures" mapstructure:"measures"`
	Features      []string   `yaml:"features" mapstructure:"features"`
	TimeAxis      string     `yaml:"time_axis" mapstructure:"time_axis"`
	Alpha         float64    `yaml:"alpha" mapstructure:"alpha"`
	Groupings     [][]string `yaml:"groupings" mapstructure:"groupings"`
	// Exclusions is a YAML file of (task, speaker) pairs left out of the
	// deception corpus; empty uses the built-in list.
	Exclusions string `yaml:"exclusions" mapstructure:"exclusions"`
}
type Database struct {
	Driver string `yaml:"driver" mapstructure:"driver"` // sqlite or postgres
	DSN    string `yaml:"dsn" mapstructure:"dsn"`
}
type Extraction struct {
	Praat       string  `yaml:"praat" mapstructure:"praat"`
	Scripts     string  `yaml:"scripts" mapstructure:"scripts"`
	CorpusPath  string  `yaml:"corpus_path" mapstructure:"corpus_path"`
	TmpDir      string  `yaml:"tmp_dir" mapstructure:"tmp_dir"`
	Workers     int     `yaml:"workers" mapstructure:"workers"`
	MinDuration float64 `yaml:"min_duration" mapstructure:"min_duration"`
	Retries     int     `yaml:"retries" mapstructure:"retries"`

	// Dict is a CMU pronouncing dictionary; Hyphenation holds TeX
	// hyphenation patterns for words missing from it.
	Dict        string `yaml:"dict" mapstructure:"dict"`
	Hyphenation string `yaml:"hyphenation" mapstructure:"hyphenation"`
}
type ObjectStore struct {
	Endpoint  string `yaml:"endpoint" mapstructure:"endpoint"`
	AccessKey string `yaml:"access_key" mapstructure:"access_key"`
	SecretKey string `yaml:"secret_key" mapstructure:"secret_key"`
	Bucket    string `yaml:"bucket" mapstructure:"bucket"`
	UseSSL    bool   `yaml:"use_ssl" mapstructure:"use_ssl"`
}
type Root struct {
	Pipeline struct {
		Name      string `yaml:"name" mapstructure:"name"`
		Version   string `yaml:"version" mapstructure:"version"`
		LogLvl    string `yaml:"log_level" mapstructure:"log_level"`
		LogFormat string `yaml:"log_format" mapstructure:"log_format"`
	} `yaml:"pipeline" mapstructure:"pipeline"`
	Analysis    Analysis    `yaml:"analysis" mapstructure:"analysis"`
	Database    Database    `yaml:"database" mapstructure:"database"`
	Extraction  Extraction  `yaml:"extraction" mapstructure:"extraction"`
	Services    Services    `yaml:"services" mapstructure:"services"`
	ObjectStore ObjectStore `yaml:"object_store" mapstructure:"object_store"`
	Metrics     struct {
		Textfile string `yaml:"textfile" mapstructure:"textfile"`
	} `yaml:"metrics" mapstructure:"metrics"`
	Paths struct {
		Data    string `yaml:"data" mapstructure:"data"`
		Outputs string `yaml:"outputs" mapstructure:"outputs"`
	} `yaml:"paths" mapstructure:"paths"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("pipeline.name", "entrainment")
	v.SetDefault("pipeline.version", "1.0")
	v.SetDefault("pipeline.log_level", "info")
	v.SetDefault("pipeline.log_format", "text")
	v.SetDefault("analysis.corpus", string(analysis.Fisher))
	v.SetDefault("analysis.normalization", string(normalize.Speaker))
	v.SetDefault("analysis.measures", []string{string(measure.Synchrony), string(measure.LocalConvergence)})
	v.SetDefault("analysis.features", feature.Names(feature.Analyzed))
	v.SetDefault("analysis.time_axis", string(measure.StartTime))
	v.SetDefault("analysis.alpha", analysis.DefaultAlpha)
	v.SetDefault("analysis.groupings", [][]string{})
	v.SetDefault("analysis.exclusions", "")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "fc.db")
	v.SetDefault("extraction.praat", "praat")
	v.SetDefault("extraction.scripts", "praat")
	v.SetDefault("extraction.corpus_path", "")
	v.SetDefault("extraction.tmp_dir", os.TempDir())
	v.SetDefault("extraction.workers", 4)
	v.SetDefault("extraction.min_duration", 0.04)
	v.SetDefault("extraction.retries", 10)
	v.SetDefault("extraction.dict", "data/cmudict.dict")
	v.SetDefault("extraction.hyphenation", "data/hyph-en-us.pat.txt")
	v.SetDefault("services.extraction.url", "")
	v.SetDefault("services.extraction.timeout", 60)
	v.SetDefault("services.visualization.url", "")
	v.SetDefault("services.visualization.timeout", 60)
	v.SetDefault("object_store.endpoint", "")
	v.SetDefault("object_store.access_key", "")
	v.SetDefault("object_store.secret_key", "")
	v.SetDefault("object_store.bucket", "entrainment")
	v.SetDefault("object_store.use_ssl", false)
	v.SetDefault("metrics.textfile", "")
	v.SetDefault("paths.data", "data")
	v.SetDefault("paths.outputs", "outputs")
}

// Load reads the configuration. An explicit path must exist; otherwise
// config/<CONFIG_ENV>/config.yaml and src/shared/config.yaml are tried and
// defaults are used when neither exists. A .env file in the working
// directory is loaded first, and ENTRAIN_* variables override file values.
func Load(path string) (*Root, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = guess()
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Root
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

func guess() string {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	for _, p := range []string{
		filepath.Join("config", env, "config.yaml"),
		filepath.Join("src", "shared", "config.yaml"),
	} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Settings are the analysis options resolved to their typed values.
type Settings struct {
	Corpus    analysis.Corpus
	Mode      normalize.Mode
	Measures  []measure.ID
	Features  []feature.ID
	Axis      measure.TimeAxis
	Groupings []measure.Grouping
	Alpha     float64
}

// Resolve parses the analysis section. Aggregate groupings are computed in
// addition to the per-speaker grouping.
func (r *Root) Resolve() (Settings, error) {
	var s Settings
	var err error
	a := r.Analysis
	if s.Corpus, err = analysis.ParseCorpus(a.Corpus); err != nil {
		return s, err
	}
	if s.Mode, err = normalize.ParseMode(a.Normalization); err != nil {
		return s, err
	}
	for _, m := range a.Measures {
		id, err := measure.ParseID(m)
		if err != nil {
			return s, err
		}
		s.Measures = append(s.Measures, id)
	}
	if s.Features, err = feature.ParseList(a.Features); err != nil {
		return s, err
	}
	if s.Axis, err = measure.ParseTimeAxis(a.TimeAxis); err != nil {
		return s, err
	}
	s.Groupings = []measure.Grouping{measure.PerSpeaker}
	for _, dims := range a.Groupings {
		g, err := measure.ParseGrouping(dims)
		if err != nil {
			return s, err
		}
		if g != measure.PerSpeaker {
			s.Groupings = append(s.Groupings, g)
		}
	}
	if !(a.Alpha > 0 && a.Alpha < 1) {
		return s, fmt.Errorf("alpha must be in (0, 1), got %v", a.Alpha)
	}
	s.Alpha = a.Alpha
	return s, nil
}

// Validate fails on the first unknown identifier in the configuration.
func (r *Root) Validate() error {
	if _, err := r.Resolve(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	switch r.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("config: %w: %q", ErrUnknownDriver, r.Database.Driver)
	}
	if r.Extraction.Workers < 1 {
		return fmt.Errorf("config: extraction.workers must be positive, got %d", r.Extraction.Workers)
	}
	return nil
}

func DurSeconds(n int) time.Duration { return time.Duration(n) * time.Second }

//go:embed exclusions_xcdc.yaml
var defaultExclusions []byte

type exclusionFile struct {
	Exclusions []analysis.TaskSpeaker `yaml:"exclusions"`
}

// LoadExclusions reads the deception corpus exclusion list from path, or the
// built-in list when path is empty.
func LoadExclusions(path string) ([]analysis.TaskSpeaker, error) {
	b := defaultExclusions
	if path != "" {
		var err error
		if b, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("exclusions: %w", err)
		}
	}
	var f exclusionFile
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("exclusions %s: %w", path, err)
	}
	return f.Exclusions, nil
}
