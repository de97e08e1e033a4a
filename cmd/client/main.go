package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/tuannm99/minidb/internal"
	"github.com/tuannm99/minidb/internal/repl"
	"github.com/tuannm99/minidb/sqlclient"
)

func main() {
	var (
		cfgPath    = flag.String("config", "", "path to a YAML config file")
		addr       = flag.String("addr", "", "server address (overrides server.addr)")
		timeout    = flag.Duration("timeout", 3*time.Second, "dial timeout")
		rwTimeout  = flag.Duration("rw-timeout", 30*time.Second, "per-request timeout")
		token      = flag.String("token", os.Getenv("MINIDB_TOKEN"), "JWT presented to the server")
		histPath   = flag.String("history", "", "history file path (overrides client.history_file)")
		oneShotSQL = flag.String("c", "", "execute one SQL and exit (must end with ';')")
	)
	flag.Parse()

	cfg, err := internal.LoadConfig(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	cfg.InstallLogger()
	if *addr == "" {
		*addr = cfg.Server.Addr
	}
	if *histPath == "" {
		*histPath = repl.DefaultHistoryPath(cfg.Client.HistoryFile)
	}

	cli, err := sqlclient.Dial(*addr, *timeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dial: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = cli.Close() }()
	cli.SetRWTimeout(*rwTimeout)

	if *token != "" {
		if err := cli.Authenticate(context.Background(), *token); err != nil {
			fmt.Fprintf(os.Stderr, "auth: %v\n", err)
			os.Exit(1)
		}
	}

	// one-shot mode
	if *oneShotSQL != "" {
		res, err := cli.Exec(*oneShotSQL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		repl.PrintResult(os.Stdout, res)
		if res.Failed() {
			os.Exit(1)
		}
		return
	}

	hist := repl.NewHistory(*histPath)
	_ = hist.Load(cfg.Client.HistoryMax)

	shell := &repl.Shell{
		Prompt:  "minidb> ",
		Banner:  fmt.Sprintf("connected to %s", *addr),
		History: hist,
		Out:     os.Stdout,
		Exec: func(stmt string) error {
			res, err := cli.Exec(stmt)
			if err != nil {
				return err
			}
			repl.PrintResult(os.Stdout, res)
			return nil
		},
		Commands: map[string]repl.Command{
			`\auth`: {
				Usage: `\auth <token>`,
				Help:  "authenticate this connection with a JWT",
				Run: func(args []string) error {
					if len(args) != 1 {
						return errors.New(`usage: \auth <token>`)
					}
					if err := cli.Authenticate(context.Background(), args[0]); err != nil {
						return err
					}
					fmt.Println("authenticated")
					return nil
				},
			},
			`\session`: {
				Usage: `\session`,
				Help:  "print the server session id",
				Run: func([]string) error {
					fmt.Println(cli.Session())
					return nil
				},
			},
		},
	}
	if err := shell.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
