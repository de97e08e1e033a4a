package main

import (
	"flag"
	"log"

	"github.com/tuannm99/minidb"
	"github.com/tuannm99/minidb/internal"
	"github.com/tuannm99/minidb/server/minidbwire"
)

func main() {
	var (
		cfgPath  = flag.String("config", "", "path to a YAML config file")
		addr     = flag.String("addr", "", "listen address (overrides server.addr)")
		dataFile = flag.String("data", "", "data file (overrides storage.data_file)")
	)
	flag.Parse()

	cfg, err := internal.LoadConfig(*cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *dataFile != "" {
		cfg.Storage.DataFile = *dataFile
	}
	cfg.InstallLogger()

	sess, err := minidb.Open(cfg)
	if err != nil {
		log.Fatalf("open: %v", err)
	}

	sc := minidbwire.ServerConfig{
		Addr:  cfg.Server.Addr,
		Debug: cfg.Server.Debug,
		Auth: minidbwire.AuthConfig{
			Enabled:   cfg.Server.Auth.Enabled,
			JWTSecret: cfg.Server.Auth.JWTSecret,
			Issuer:    cfg.Server.Auth.Issuer,
			Audience:  cfg.Server.Auth.Audience,
		},
	}
	if err := minidbwire.Run(sc, sess); err != nil {
		log.Fatalf("server: %v", err)
	}
	log.Printf("minidb server stopped, data saved to %s", sess.DataFile())
}
