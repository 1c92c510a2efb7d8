package main

import (
	"chatpulse/internal/di"
	"chatpulse/internal/structures"
	"flag"
	"fmt"
	"os"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	debug := flag.Bool("debug", false, "force debug log level")
	flag.Parse()

	flags := &structures.CliFlags{
		ConfigPath: *configPath,
		DebugMode:  *debug,
	}

	app, err := di.InitApp(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "chatpulse: %v\n", err)
		os.Exit(1)
	}

	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "chatpulse: %v\n", err)
		os.Exit(1)
	}
}
