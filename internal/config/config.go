package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/babarot/tana/internal/env"
	"github.com/docker/go-units"
	"github.com/go-playground/validator/v10"
	"github.com/gobwas/glob"
	"github.com/muesli/reflow/indent"
	"gopkg.in/yaml.v2"
)

var validate *validator.Validate

type Config struct {
	Core    Core    `yaml:"core"`
	Preview Preview `yaml:"preview"`
	Open    Open    `yaml:"open"`
	UI      UI      `yaml:"ui"`
	Logging Logging `yaml:"logging"`
}

type Core struct {
	Workers    int      `yaml:"workers" validate:"min=1,max=64"`
	ShowHidden bool     `yaml:"show_hidden"`
	Ignore     []string `yaml:"ignore" validate:"dive,validGlob"`
}

type Preview struct {
	CacheSize       string   `yaml:"cache_size" validate:"validSize"`
	MaxTextSize     string   `yaml:"max_text_size" validate:"validSize"`
	MaxLines        int      `yaml:"max_lines" validate:"min=1"`
	DirLimit        int      `yaml:"dir_limit" validate:"min=1"`
	Prefetch        int      `yaml:"prefetch" validate:"min=0,max=16"`
	Delay           string   `yaml:"delay" validate:"validDuration"`
	SyntaxHighlight bool     `yaml:"syntax_highlight"`
	Colorscheme     string   `yaml:"colorscheme"`
	Image           Image    `yaml:"image"`
	External        External `yaml:"external"`
}

type Image struct {
	Enabled   bool `yaml:"enabled"`
	Dithering bool `yaml:"dithering"`
}

type External struct {
	Command string `yaml:"command"`
	Timeout string `yaml:"timeout" validate:"validDuration"`
}

type Open struct {
	Rules []OpenRule `yaml:"rules" validate:"dive"`
}

// OpenRule maps a mime glob or an extension to a command. The path is
// appended to the command, or substituted for "{}".
type OpenRule struct {
	Mime     string `yaml:"mime,omitempty" validate:"omitempty,validGlob"`
	Ext      string `yaml:"ext,omitempty"`
	Command  string `yaml:"command" validate:"required"`
	Terminal bool   `yaml:"terminal"`
}

type UI struct {
	DateFormat string `yaml:"date_format" validate:"required"`
	Style      Style  `yaml:"style"`
}

type Style struct {
	Cursor    string `yaml:"cursor" validate:"validColor"`
	Marked    string `yaml:"marked" validate:"validColor"`
	Directory string `yaml:"directory" validate:"validColor"`
	Symlink   string `yaml:"symlink" validate:"validColor"`
	Border    string `yaml:"border" validate:"validColor"`
	Error     string `yaml:"error" validate:"validColor"`
}

type Logging struct {
	Enabled  bool     `yaml:"enabled"`
	Level    string   `yaml:"level" validate:"oneof=debug info warn error"`
	Rotation Rotation `yaml:"rotation"`
}

type Rotation struct {
	MaxSize  string `yaml:"max_size" validate:"validSize"`
	MaxFiles int    `yaml:"max_files" validate:"min=0"`
}

// CacheBytes is the preview cache bound in bytes
func (p Preview) CacheBytes() int64 {
	n, _ := units.FromHumanSize(p.CacheSize)
	return n
}

// MaxTextBytes is the largest file rendered as text
func (p Preview) MaxTextBytes() int64 {
	n, _ := units.FromHumanSize(p.MaxTextSize)
	return n
}

func (p Preview) DelayDuration() time.Duration {
	d, _ := parseDuration(p.Delay)
	return d
}

func (e External) TimeoutDuration() time.Duration {
	d, _ := parseDuration(e.Timeout)
	return d
}

// IgnoreGlobs compiles core.ignore. Patterns were checked by the validator.
func (c Core) IgnoreGlobs() []glob.Glob {
	globs := make([]glob.Glob, 0, len(c.Ignore))
	for _, p := range c.Ignore {
		if g, err := glob.Compile(p); err == nil {
			globs = append(globs, g)
		}
	}
	return globs
}

type configError struct {
	configPath string
	parser     parser
	err        error
}

type parser struct{}

func (p parser) getDefaultConfigContents() string {
	content, _ := yaml.Marshal(Default())
	return string(content)
}

func (e configError) Error() string {
	return heredoc.Docf(`
		Couldn't read the "%s" config file.
		Please try again after creating it or specifying a valid config path.
		The recommended config path is %s (default).
		Example YAML file contents:
		---
		%s
		---
		Original error:
		%s
		`,
		e.configPath,
		env.TANA_CONFIG_PATH,
		e.parser.getDefaultConfigContents(),
		indent.String(e.err.Error(), 2),
	)
}

func (p parser) createConfigFile(path string) error {
	if err := p.ensureDirExists(filepath.Dir(path)); err != nil {
		return err
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		slog.Warn("creating config file as it does not exist", "config-file", path)
		f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o666)
		if err != nil {
			return err
		}
		defer f.Close()

		if _, err := f.WriteString(p.getDefaultConfigContents()); err != nil {
			return err
		}
	}
	return nil
}

func (p parser) ensureDirExists(dirPath string) error {
	if _, err := os.Stat(dirPath); os.IsNotExist(err) {
		slog.Warn("creating directory as it does not exist", "dir", dirPath)
		if err := os.MkdirAll(dirPath, os.ModePerm); err != nil {
			return err
		}
	}
	return nil
}

func (p parser) ensureConfigFile() (string, error) {
	path := env.TANA_CONFIG_PATH
	if err := p.createConfigFile(path); err != nil {
		return "", configError{
			configPath: path,
			parser:     p,
			err:        err,
		}
	}
	return path, nil
}

type parsingError struct {
	err error
}

func (e parsingError) Error() string {
	return fmt.Sprintf("failed to parse config: %v", e.err)
}

func (e parsingError) Unwrap() error { return e.err }

func (p parser) readConfigFile(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, configError{
			configPath: path,
			parser:     p,
			err:        err,
		}
	}

	// keys missing from the file keep their defaults
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return cfg, err
	}

	if err := validate.Struct(cfg); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, err := range verrs {
				return cfg, fmt.Errorf("validation error: field %s, %q is invalid", err.Namespace(), err.Value())
			}
		}
		return cfg, err
	}
	return cfg, nil
}

func initParser() parser {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.Split(fld.Tag.Get("yaml"), ",")[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation("validSize", validateSize)
	_ = validate.RegisterValidation("validColor", validateColorCode)
	_ = validate.RegisterValidation("validDuration", validateDuration)
	_ = validate.RegisterValidation("validGlob", validateGlob)

	return parser{}
}

// Parse reads the config at path. An empty path means the default
// location, which is created with default contents on first run.
func Parse(path string) (Config, error) {
	parser := initParser()

	configPath := path
	if configPath == "" {
		var err error
		configPath, err = parser.ensureConfigFile()
		if err != nil {
			return Default(), parsingError{err: err}
		}
	}
	slog.Debug("config file found", "config-file", configPath)

	cfg, err := parser.readConfigFile(configPath)
	if err != nil {
		return cfg, parsingError{err: err}
	}
	return cfg, nil
}
