package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rbarranco/nmail/internal/config"
	"github.com/rbarranco/nmail/internal/db"
	"github.com/rbarranco/nmail/internal/notmuch"
	"github.com/rbarranco/nmail/internal/tui"
	"github.com/rbarranco/nmail/internal/version"
)

func main() {
	configPath := flag.String("config", config.DefaultConfigPath(), "path to the configuration file")
	showVersion := flag.Bool("version", false, "print version information and exit")
	setup := flag.Bool("setup", false, "interactively create a configuration file")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Get().String())
		return
	}

	if *setup {
		if err := runSetup(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "setup failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot load config %s: %v\n", *configPath, err)
		os.Exit(1)
	}

	client := notmuch.NewClient(cfg.Notmuch)

	var store *db.Store
	if cfg.History.Enabled {
		path := cfg.History.Path
		if path == "" {
			path = filepath.Join(config.DefaultDataDir(), "nmail.db")
		}
		store, err = db.Open(path, nil)
		if err != nil {
			// History is a convenience; run without it.
			fmt.Fprintf(os.Stderr, "warning: query history unavailable: %v\n", err)
			store = nil
		}
	}
	defer store.Close()

	app := tui.NewApp(cfg, client, store)
	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "nmail: %v\n", err)
		os.Exit(1)
	}
}

// runSetup asks the minimal questions and writes a config file. Everything
// else keeps its default and can be edited in the file afterwards.
func runSetup(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists, edit it directly", path)
	}

	in := bufio.NewReader(os.Stdin)
	cfg := config.DefaultConfig()

	fmt.Printf("Email address (From header for new drafts): ")
	addr, err := in.ReadString('\n')
	if err != nil {
		return err
	}
	cfg.EmailAddress = strings.TrimSpace(addr)

	fmt.Printf("Send command [%s]: ", strings.Join(cfg.SendMailCommand, " "))
	send, err := in.ReadString('\n')
	if err != nil {
		return err
	}
	if send = strings.TrimSpace(send); send != "" {
		cfg.SendMailCommand = strings.Fields(send)
	}

	fmt.Printf("Sent maildir (blank to skip sent copies): ")
	sent, err := in.ReadString('\n')
	if err != nil {
		return err
	}
	cfg.SentDir = strings.TrimSpace(sent)

	if err := cfg.SaveConfig(path); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}
