package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/contactkeval/option-lattice/internal/config"
	"github.com/contactkeval/option-lattice/internal/data"
	"github.com/contactkeval/option-lattice/internal/engine"
	"github.com/contactkeval/option-lattice/internal/logger"
	"github.com/contactkeval/option-lattice/internal/report"
	"github.com/contactkeval/option-lattice/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to YAML/JSON/TOML config (defaults and OPTLAT_* env apply when empty)")
	rest := flag.Bool("rest", false, "run as REST server (accept pricing requests)")
	port := flag.String("port", ":8080", "REST server listen address")
	charts := flag.Bool("charts", false, "render exercise boundary and value evolution charts")
	outDir := flag.String("out", "", "report directory (overrides report_dir)")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[warn] reading .env: %v", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	if *outDir != "" {
		cfg.ReportDir = *outDir
	}
	if *charts {
		cfg.Charts = true
	}
	logger.SetVerbosity(int(cfg.Level()))

	// choose provider
	prov, err := data.NewProvider(cfg.Market.Provider, cfg.Market.DataDir, cfg.Market.Seed)
	if err != nil {
		log.Fatalf("data provider: %v", err)
	}
	logger.Infof("%s provider enabled", prov.Name())

	eng := engine.NewEngine(cfg, prov)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *rest {
		gin.SetMode(gin.ReleaseMode)
		if err := server.ListenAndServe(ctx, *port, server.NewRouter(eng)); err != nil {
			log.Fatal(err)
		}
		return
	}

	if err := os.MkdirAll(cfg.ReportDir, 0755); err != nil {
		logger.Warnf("could not create output dir %s: %v", cfg.ReportDir, err)
	}

	start := time.Now()
	if len(cfg.Strikes) > 0 {
		results, err := eng.RunLadder(ctx, cfg.Strikes)
		if err != nil {
			log.Fatalf("ladder failed: %v", err)
		}
		if err := report.WriteLadderCSV(results, cfg.ReportDir); err != nil {
			logger.Errorf("writing ladder: %v", err)
		}
		_ = report.WriteLadderSummary(os.Stdout, results)
		logger.Infof("finished in %v, wrote %d strikes to %s", time.Since(start), len(results), cfg.ReportDir)
		return
	}

	res, err := eng.Run(ctx)
	if err != nil {
		log.Fatalf("pricing failed: %v", err)
	}

	if err := report.WriteJSON(res, cfg.ReportDir); err != nil {
		logger.Errorf("writing %s: %v", report.ResultFile, err)
	}
	if err := report.WriteBoundaryCSV(res.Boundary, cfg.ReportDir); err != nil {
		logger.Errorf("writing %s: %v", report.BoundaryFile, err)
	}
	if err := report.WriteValueTableCSV(res, cfg.ReportDir); err != nil {
		logger.Errorf("writing %s: %v", report.ValueTableFile, err)
	}
	if cfg.Charts {
		if err := report.PlotExerciseBoundary(res.Boundary, "American Option Exercise Boundary",
			filepath.Join(cfg.ReportDir, report.BoundaryChartFile)); err != nil {
			logger.Warnf("boundary chart: %v", err)
		}
		if err := report.PlotValueEvolution(res.Contract, res.Tables.Values, "Option Price Evolution",
			filepath.Join(cfg.ReportDir, report.ValueChartFile)); err != nil {
			logger.Warnf("value chart: %v", err)
		}
	}

	_ = report.WriteSummary(os.Stdout, res)
	logger.Infof("finished in %v, wrote reports to %s", time.Since(start), cfg.ReportDir)
}
