package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/danmuck/shtops/internal/config"
	"github.com/danmuck/shtops/internal/dashboard"
	"github.com/danmuck/shtops/internal/observability"
)

func main() {
	configPath := flag.String("config", "shtops.toml", "path to shtops.toml")
	addr := flag.String("addr", "", "listen address override")
	flag.Parse()

	logger := observability.InitLogger("shtops-dashboard")

	cfg, err := config.LoadAppConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "shtops-dashboard: %v\n", err)
		os.Exit(1)
	}

	listen := cfg.Dashboard.Addr
	if *addr != "" {
		listen = *addr
	}

	srv := dashboard.New(cfg.Cache.Directory, config.CacheTTL(cfg.Cache), cfg.Dashboard.CorsOrigins)
	if err := srv.Run(listen); err != nil {
		logger.Error().Err(err).Msg("dashboard_exit")
		os.Exit(1)
	}
}
