package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/tuannm99/minidb"
	"github.com/tuannm99/minidb/internal"
	"github.com/tuannm99/minidb/internal/repl"
)

func main() {
	var (
		cfgPath    = flag.String("config", "", "path to a YAML config file")
		dataFile   = flag.String("data", "", "data file (overrides storage.data_file)")
		oneShotSQL = flag.String("c", "", "execute a script and exit")
	)
	flag.Parse()

	cfg, err := internal.LoadConfig(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *dataFile != "" {
		cfg.Storage.DataFile = *dataFile
	}
	cfg.InstallLogger()

	sess, err := minidb.Open(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open: %v\n", err)
		os.Exit(1)
	}

	if *oneShotSQL != "" {
		failed := false
		for _, res := range sess.ExecScript(*oneShotSQL) {
			repl.PrintResult(os.Stdout, res)
			failed = failed || res.Failed()
		}
		if err := sess.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "save: %v\n", err)
			os.Exit(1)
		}
		if failed {
			os.Exit(1)
		}
		return
	}

	// Save on SIGTERM (and SIGINT outside the line editor).
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		slog.Info("minidb: shutting down", "signal", sig.String())
		if err := sess.Close(); err != nil {
			slog.Error("minidb: save on shutdown", "err", err)
			os.Exit(1)
		}
		os.Exit(0)
	}()

	histPath := repl.DefaultHistoryPath(cfg.Client.HistoryFile)
	hist := repl.NewHistory(histPath)
	if err := hist.Load(cfg.Client.HistoryMax); err != nil {
		slog.Warn("minidb: load history", "path", histPath, "err", err)
	}

	shell := &repl.Shell{
		Prompt:   "minidb> ",
		Banner:   fmt.Sprintf("minidb: %s (%d tables)", sess.DataFile(), len(sess.Tables())),
		History:  hist,
		Out:      os.Stdout,
		Commands: commands(sess),
		Exec: func(stmt string) error {
			repl.PrintResult(os.Stdout, sess.Exec(stmt))
			return nil
		},
	}
	if n := len(sess.LoadWarnings()); n > 0 {
		shell.Banner += fmt.Sprintf("\n%d load warning(s), see the log", n)
	}

	runErr := shell.Run()
	signal.Stop(sigChan)
	if err := sess.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "save: %v\n", err)
		os.Exit(1)
	}
	if runErr != nil {
		fmt.Fprintln(os.Stderr, runErr)
		os.Exit(1)
	}
}

func commands(sess *minidb.Session) map[string]repl.Command {
	return map[string]repl.Command{
		`\tables`: {
			Usage: `\tables`,
			Help:  "list tables",
			Run: func([]string) error {
				for _, name := range sess.Tables() {
					fmt.Println(name)
				}
				return nil
			},
		},
		`\save`: {
			Usage: `\save`,
			Help:  "write the data file now",
			Run: func([]string) error {
				if err := sess.Save(); err != nil {
					return err
				}
				fmt.Printf("saved %s\n", sess.DataFile())
				return nil
			},
		},
		`\i`: {
			Usage: `\i <file>`,
			Help:  "execute the statements of a script file",
			Run: func(args []string) error {
				if len(args) != 1 {
					return errors.New(`usage: \i <file>`)
				}
				script, err := os.ReadFile(args[0])
				if err != nil {
					return err
				}
				for _, res := range sess.ExecScript(string(script)) {
					repl.PrintResult(os.Stdout, res)
				}
				return nil
			},
		},
		`\log`: {
			Usage: `\log [n]`,
			Help:  "list data file snapshots",
			Run: func(args []string) error {
				n := 20
				if len(args) > 0 {
					v, err := strconv.Atoi(args[0])
					if err != nil {
						return fmt.Errorf(`\log: bad count %q`, args[0])
					}
					n = v
				}
				entries, err := sess.History(n)
				if err != nil {
					return err
				}
				for _, e := range entries {
					fmt.Printf("%s  %s  %s\n", e.ShortHash(), e.When.Format("2006-01-02 15:04:05"), e.Message)
				}
				return nil
			},
		},
		`\restore`: {
			Usage: `\restore <hash>`,
			Help:  "load the tables of a snapshot (saved on next \\save or exit)",
			Run: func(args []string) error {
				if len(args) != 1 {
					return errors.New(`usage: \restore <hash>`)
				}
				warnings, err := sess.Restore(args[0])
				if err != nil {
					return err
				}
				for _, w := range warnings {
					fmt.Printf("warning: %s\n", w)
				}
				fmt.Printf("restored %d tables\n", len(sess.Tables()))
				return nil
			},
		},
	}
}
