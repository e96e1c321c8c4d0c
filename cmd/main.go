// Command songscope plays a YouTube music video next to an AI-identified
// song card with trivia and lyrics.
//
//	go build -o build/songscope ./cmd
//	./build/songscope [--config config.yaml] [--env-file .env]
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/tejashwikalptaru/songscope/internal/app"
	"github.com/tejashwikalptaru/songscope/internal/config"
	"github.com/tejashwikalptaru/songscope/internal/platform/httpclient"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "songscope:", err)
		os.Exit(1)
	}
}

func run(args []string) (err error) {
	flags := pflag.NewFlagSet("songscope", pflag.ContinueOnError)
	configFile := flags.StringP("config", "c", "", "path to a config file (default: ./config.yaml or ~/.songscope/config.yaml)")
	envFiles := flags.StringSlice("env-file", []string{".env"}, "dotenv files loaded before reading the environment")
	showVersion := flags.BoolP("version", "v", false, "print the version and exit")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	version := app.GetVersionInfo()
	if *showVersion {
		fmt.Println(version.FullString())
		return nil
	}
	httpclient.UserAgent = "songscope/" + version.Display()

	cfg := app.DefaultConfig()
	cfg.LoadOptions = config.Options{ConfigFile: *configFile, EnvFiles: *envFiles}

	application, err := app.NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}
	defer func() {
		err = errors.Join(err, application.Shutdown())
	}()

	// Blocks until the main window closes
	return application.Run()
}
