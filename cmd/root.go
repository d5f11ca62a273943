package cmd

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/spigell/job-matcher/internal/matcher"
	"github.com/spigell/job-matcher/internal/params"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app       = "job-matcher"
	envPrefix = "JOB_MATCHER"

	defaultBaseURL = "http://localhost:8000"
)

type Config struct {
	BaseURL     string        `mapstructure:"base-url"`
	UserAgent   string        `mapstructure:"user-agent"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Match       *MatchConfig  `mapstructure:"match"`
	ExcludeFile string        `mapstructure:"exclude-file"`
	Exclude     *struct {
		Companies []string
	}
}

type MatchConfig struct {
	Resume     string  `mapstructure:"resume"`
	Threshold  float64 `mapstructure:"threshold"`
	EntryLevel bool    `mapstructure:"entry-level"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "job-matcher matches a resume against job postings scored by a remote service",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("base-url", defaultBaseURL)
	viper.SetDefault("user-agent", "")
	viper.SetDefault("timeout", matcher.DefaultTimeout)
	viper.SetDefault("exclude-file", "")
	viper.SetDefault("match.resume", "")
	viper.SetDefault("match.threshold", params.DefaultThreshold)
	viper.SetDefault("match.entry-level", false)

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is job-matcher.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("base-url", defaultBaseURL, "base URL of the matching service")
	rootCmd.PersistentFlags().StringP("resume", "r", "", "resume file (txt, pdf or docx)")
	rootCmd.PersistentFlags().Float64P("threshold", "t", params.DefaultThreshold, "match threshold between 0.1 and 0.9")
	rootCmd.PersistentFlags().BoolP("entry-level", "e", false, "entry-level jobs only")
	rootCmd.PersistentFlags().String("exclude-file", "", "file with jobs hidden from the results. Default is unset.")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("base-url", rootCmd.PersistentFlags().Lookup("base-url"))
	viper.BindPFlag("match.resume", rootCmd.PersistentFlags().Lookup("resume"))
	viper.BindPFlag("match.threshold", rootCmd.PersistentFlags().Lookup("threshold"))
	viper.BindPFlag("match.entry-level", rootCmd.PersistentFlags().Lookup("entry-level"))
	viper.BindPFlag("exclude-file", rootCmd.PersistentFlags().Lookup("exclude-file"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The config file is optional: flags and JOB_MATCHER_* variables are enough.
	// An explicitly requested or unparsable file is fatal.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config.Match == nil {
		config.Match = &MatchConfig{Threshold: params.DefaultThreshold}
	}

	return config, nil
}
