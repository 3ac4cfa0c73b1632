package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// app carries the configuration shared by every command.
type app struct {
	v       *viper.Viper
	cfgFile string
	logger  zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), logger: zerolog.Nop()}

	rootCmd := &cobra.Command{
		Use:           "codedis",
		Short:         "Disassemble compiled bytecode images",
		Long:          "codedis prints human readable listings of compiled bytecode, including every nested function.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.initConfig(); err != nil {
				return err
			}
			logger, err := newLogger(cmd.ErrOrStderr(), a.v.GetString("log-level"))
			if err != nil {
				return err
			}
			a.logger = logger
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.codedis.yaml)")
	flags.Bool("no-color", false, "Disable colored output")
	flags.String("log-level", "warn", "Log level (debug, info, warn, error)")
	a.v.BindPFlag("no-color", flags.Lookup("no-color"))
	a.v.BindPFlag("log-level", flags.Lookup("log-level"))

	rootCmd.AddCommand(
		newDisCmd(a),
		newStatsCmd(a),
		newVersionCmd(a),
	)
	return rootCmd
}

// initConfig reads in the config file and environment variables if set.
func (a *app) initConfig() error {
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else {
		home, err := homedir.Dir()
		if err == nil {
			a.v.AddConfigPath(home)
		}
		a.v.SetConfigType("yaml")
		a.v.SetConfigName(".codedis")
	}
	a.v.SetEnvPrefix("codedis")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	a.v.AutomaticEnv()

	if err := a.v.ReadInConfig(); err != nil {
		// A missing default config file is fine; an explicit one must exist.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("reading config: %w", err)
		}
	}
	return nil
}

func newLogger(w io.Writer, level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q", level)
	}
	out := zerolog.ConsoleWriter{Out: w, NoColor: !isTerminal(w)}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fatal(err)
	}
}

