package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/wolfitem/news-enricher/internal/infrastructure/logger"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "news-enricher",
	Short: "RSS aggregation with images and categories",
	Long: `news-enricher reads a list of RSS/Atom feeds, finds the main image of every
article page, classifies each article by topic and serves the result as JSON
over HTTP or writes it as a JSON or markdown report.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx := setupSignalHandler()

	err := rootCmd.ExecuteContext(ctx)
	logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./config.yaml)")
}

// initConfig reads .env, the config file and environment variables.
func initConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "cannot read .env: %v\n", err)
	}

	registerDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	configErr := viper.ReadInConfig()
	initLogger()

	if configErr == nil {
		logger.Info("using config file", "file", viper.ConfigFileUsed())
	} else {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(configErr, &notFound) || cfgFile != "" {
			fmt.Fprintf(os.Stderr, "cannot read config file: %v\n", configErr)
		}
		logger.Info("running with defaults", "reason", configErr.Error())
	}
}

func initLogger() {
	var logConfig logger.Config
	if err := viper.UnmarshalKey("logger", &logConfig); err != nil {
		fmt.Fprintf(os.Stderr, "invalid logger config: %v\n", err)
	}

	if err := logger.Init(logConfig); err != nil {
		fmt.Fprintf(os.Stderr, "cannot initialise logging: %v\n", err)
	}
}

// setupSignalHandler cancels the returned context on SIGINT or SIGTERM; a
// second signal exits immediately.
func setupSignalHandler() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintln(os.Stderr, "\ninterrupt received, shutting down...")
		logger.Info("interrupt received, releasing resources")
		cancel()

		<-c
		logger.Sync()
		os.Exit(1)
	}()

	return ctx
}
