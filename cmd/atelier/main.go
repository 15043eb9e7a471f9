package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/atelierhq/atelier/internal/profile"
	"github.com/atelierhq/atelier/server"
	"github.com/atelierhq/atelier/store"
	"github.com/atelierhq/atelier/store/db"
)

const greetingBanner = `
     _  _       _  _
    / \| |_ ___| |(_) ___ _ __
   / _ \ __/ _ \ || |/ _ \ '__|
  / ___ \ ||  __/ || |  __/ |
 /_/   \_\__\___|_||_|\___|_|
`

var rootCmd = &cobra.Command{
	Use:   "atelier",
	Short: "A conversational catalog of curated design resources",
	Run: func(_ *cobra.Command, _ []string) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		instanceProfile := profile.FromViper(viper.GetViper())
		if err := instanceProfile.Validate(); err != nil {
			slog.Error("invalid configuration", "error", err)
			os.Exit(1)
		}
		if instanceProfile.IsDev() {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}

		driver, err := db.NewDriver(instanceProfile)
		if err != nil {
			slog.Error("failed to create database driver", "error", err)
			os.Exit(1)
		}
		st := store.New(driver, instanceProfile)
		if err := st.Migrate(ctx); err != nil {
			slog.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}

		s, err := server.NewServer(ctx, instanceProfile, st)
		if err != nil {
			slog.Error("failed to create server", "error", err)
			os.Exit(1)
		}

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			sig := <-sigChan
			slog.Info("shutting down", "signal", sig.String())
			s.Shutdown(ctx)
			cancel()
		}()

		fmt.Print(greetingBanner)
		fmt.Printf("Version %s, mode %s, listening on %s:%d\n",
			instanceProfile.Version, instanceProfile.Mode, instanceProfile.Addr, instanceProfile.Port)

		if err := s.Start(ctx); err != nil {
			if ctx.Err() == nil {
				slog.Error("server failed", "error", err)
				os.Exit(1)
			}
		}
		<-ctx.Done()
	},
}

func init() {
	rootCmd.PersistentFlags().String("mode", "dev", `mode of the server, can be "prod", "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of the server")
	rootCmd.PersistentFlags().Int("port", 8230, "port of the server")
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", `database driver, can be "sqlite" or "postgres"`)
	rootCmd.PersistentFlags().String("dsn", "", "database source name")
	rootCmd.PersistentFlags().String("instance-url", "", "publicly reachable URL of this instance")

	for _, flag := range []string{"mode", "addr", "port", "data", "driver", "dsn", "instance-url"} {
		if err := viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(err)
		}
	}
	viper.SetEnvPrefix("atelier")
	viper.AutomaticEnv()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
