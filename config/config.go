package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const defaultEnvFile = ".env"

// Config captures all command-line options of a run.
type Config struct {
	Inputs      []string `validate:"required,min=1,dive,required"`
	Output      string   `validate:"omitempty,contact_output"`
	Preview     int      `validate:"min=0"`
	MetricsFile string
	Workers     int `validate:"min=1,max=64"`
	Progress    bool
	LogLevel    string `validate:"oneof=debug info warn error"`
	LogDir      string
	ReadpstTool string `validate:"required"`
	TempDir     string
	Delimiter   string `validate:"omitempty,len=1"`

	IMAPUser               string
	IMAPPass               string
	IMAPMailboxes          []string
	IMAPInsecureSkipVerify bool

	IncludeFolder  []string
	IncludeSubject []string
	ExcludeFolder  []string
	ExcludeSubject []string
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("contact_output", func(fl validator.FieldLevel) bool {
		switch strings.ToLower(filepath.Ext(fl.Field().String())) {
		case ".csv", ".xlsx":
			return true
		}
		return false
	})
	return v
}

// RegisterFlags attaches the flags shared by every command that reads inputs.
func RegisterFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("env-file", "", "Path to a .env file (defaults to ./.env when present)")
	flags.String("log-level", "info", "Logging level: debug, info, warn, error")
	flags.String("log-dir", "", "Directory for log files (logs go to stderr only when empty)")
	flags.Int("workers", 1, "Number of inputs processed concurrently")
	flags.Bool("progress", true, "Show a progress spinner while reading")
	flags.String("readpst", "readpst", "readpst binary used for PST/OST archives the native reader cannot open")
	flags.String("temp-dir", "", "Parent directory for temporary conversion output")
	flags.String("delimiter", "", "CSV field delimiter (default ',')")
	flags.String("imap-user", "", "IMAP username (overrides the user part of an imap:// input)")
	flags.String("imap-pass", "", "IMAP password (falls back to IMAP_PASS env var)")
	flags.StringArray("imap-mailbox", nil, "IMAP mailbox to read (repeatable, default: all)")
	flags.Bool("imap-insecure-skip-verify", false, "Skip TLS certificate verification (not recommended)")
	flags.StringArray("include-folder", nil, "Regex allow-list applied to message folders (mutually exclusive with exclude flags)")
	flags.StringArray("include-subject", nil, "Regex allow-list applied to message subjects (mutually exclusive with exclude flags)")
	flags.StringArray("exclude-folder", nil, "Regex block-list applied to message folders (mutually exclusive with include flags)")
	flags.StringArray("exclude-subject", nil, "Regex block-list applied to message subjects (mutually exclusive with include flags)")
}

// RegisterOutputFlags attaches the flags of commands that write a contact list.
func RegisterOutputFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringP("output", "o", "", "Output file, .xlsx or .csv (default cleaned_<first input>.xlsx)")
	flags.Int("preview", 10, "Number of contacts to print after the run")
	flags.String("metrics-file", "", "Write Prometheus text-format metrics to this file")
}

// LoadConfig converts the parsed Cobra flags and positional inputs into a
// validated Config.
func LoadConfig(cmd *cobra.Command, inputs []string) (Config, error) {
	flags := cmd.Flags()

	envFile, err := flags.GetString("env-file")
	if err != nil {
		return Config{}, err
	}
	if err := loadEnv(envFile); err != nil {
		return Config{}, err
	}

	cfg := Config{Inputs: inputs}
	strs := []struct {
		name string
		dst  *string
	}{
		{"log-level", &cfg.LogLevel},
		{"log-dir", &cfg.LogDir},
		{"readpst", &cfg.ReadpstTool},
		{"temp-dir", &cfg.TempDir},
		{"delimiter", &cfg.Delimiter},
		{"imap-user", &cfg.IMAPUser},
		{"imap-pass", &cfg.IMAPPass},
	}
	for _, s := range strs {
		if *s.dst, err = flags.GetString(s.name); err != nil {
			return Config{}, err
		}
	}

	arrays := []struct {
		name string
		dst  *[]string
	}{
		{"imap-mailbox", &cfg.IMAPMailboxes},
		{"include-folder", &cfg.IncludeFolder},
		{"include-subject", &cfg.IncludeSubject},
		{"exclude-folder", &cfg.ExcludeFolder},
		{"exclude-subject", &cfg.ExcludeSubject},
	}
	for _, a := range arrays {
		if *a.dst, err = flags.GetStringArray(a.name); err != nil {
			return Config{}, err
		}
	}

	if cfg.Workers, err = flags.GetInt("workers"); err != nil {
		return Config{}, err
	}
	if cfg.Progress, err = flags.GetBool("progress"); err != nil {
		return Config{}, err
	}
	if cfg.IMAPInsecureSkipVerify, err = flags.GetBool("imap-insecure-skip-verify"); err != nil {
		return Config{}, err
	}

	if flags.Lookup("output") != nil {
		if cfg.Output, err = flags.GetString("output"); err != nil {
			return Config{}, err
		}
		if cfg.Preview, err = flags.GetInt("preview"); err != nil {
			return Config{}, err
		}
		if cfg.MetricsFile, err = flags.GetString("metrics-file"); err != nil {
			return Config{}, err
		}
		if cfg.Output == "" && len(inputs) > 0 {
			cfg.Output = DefaultOutput(inputs[0])
		}
	}

	if cfg.IMAPPass == "" {
		cfg.IMAPPass = os.Getenv("IMAP_PASS")
	}
	if !flags.Changed("log-level") {
		if env := os.Getenv("CONTACT_CLEANER_LOG_LEVEL"); env != "" {
			cfg.LogLevel = env
		}
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// DefaultOutput is cleaned_<stem>.xlsx in the working directory.
func DefaultOutput(input string) string {
	base := filepath.Base(strings.TrimRight(input, "/\\"))
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." {
		stem = "contacts"
	}
	return "cleaned_" + stem + ".xlsx"
}

func loadEnv(path string) error {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
		return nil
	}
	if _, err := os.Stat(defaultEnvFile); err == nil {
		if err := godotenv.Load(defaultEnvFile); err != nil {
			return fmt.Errorf("load env file %s: %w", defaultEnvFile, err)
		}
	}
	return nil
}

func validateConfig(cfg Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return describe(verrs[0])
		}
		return err
	}

	includeActive := len(cfg.IncludeFolder) > 0 || len(cfg.IncludeSubject) > 0
	excludeActive := len(cfg.ExcludeFolder) > 0 || len(cfg.ExcludeSubject) > 0
	if includeActive && excludeActive {
		return fmt.Errorf("include and exclude flags are mutually exclusive")
	}

	return nil
}

func describe(fe validator.FieldError) error {
	field, _, _ := strings.Cut(fe.StructField(), "[")
	switch field {
	case "Inputs":
		return fmt.Errorf("at least one input file, directory or imap:// URL is required")
	case "Output":
		return fmt.Errorf("--output must end in .xlsx or .csv")
	case "Preview":
		return fmt.Errorf("--preview must not be negative")
	case "Workers":
		return fmt.Errorf("--workers must be between 1 and 64")
	case "LogLevel":
		return fmt.Errorf("invalid --log-level: %v", fe.Value())
	case "ReadpstTool":
		return fmt.Errorf("--readpst must not be empty")
	case "Delimiter":
		return fmt.Errorf("--delimiter must be a single character")
	default:
		return fmt.Errorf("invalid %s: %s", fe.Field(), fe.Tag())
	}
}
