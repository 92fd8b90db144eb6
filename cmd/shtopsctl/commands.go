package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/danmuck/shtops/internal/collectors"
	"github.com/danmuck/shtops/internal/config"
	"github.com/danmuck/shtops/internal/status"
)

func cmdStatus(args []string, out io.Writer) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	var cf commonFlags
	bindCommonFlags(fs, &cf)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	s, err := resolveSettings(cf, fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "shtopsctl: %v\n", err)
		return 1
	}

	report := status.Collect(s.cacheDir, s.ttl)
	if s.jsonOut {
		if err := writeJSON(out, statusPayload(report)); err != nil {
			fmt.Fprintf(os.Stderr, "shtopsctl: %v\n", err)
			return 1
		}
		return exitFor(report.Overall)
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SYSTEM\tCACHE\tCOLLECTED")
	for _, system := range status.Systems {
		file := report.Cache[system]
		state := "missing"
		switch {
		case file.Err != "":
			state = "error"
		case file.Exists && file.Fresh:
			state = "fresh"
		case file.Exists:
			state = "stale"
		}
		age := "-"
		if file.HasAge {
			age = status.FormatAge(file.AgeSeconds) + " ago"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", system, state, age)
	}
	w.Flush()
	fmt.Fprintf(out, "\noverall: %s\n", report.Overall)
	return exitFor(report.Overall)
}

func cmdAttention(args []string, out io.Writer) int {
	fs := flag.NewFlagSet("attention", flag.ContinueOnError)
	var cf commonFlags
	bindCommonFlags(fs, &cf)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	s, err := resolveSettings(cf, fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "shtopsctl: %v\n", err)
		return 1
	}

	report := status.Collect(s.cacheDir, s.ttl)
	if s.jsonOut {
		if err := writeJSON(out, statusPayload(report)); err != nil {
			fmt.Fprintf(os.Stderr, "shtopsctl: %v\n", err)
			return 1
		}
		return exitFor(report.Overall)
	}

	if len(report.Attention) == 0 {
		fmt.Fprintln(out, "nothing needs attention")
		return 0
	}
	for _, item := range report.Attention {
		fmt.Fprintf(out, "[%s] %s: %s\n", item.Severity, item.System, item.Message)
	}
	return exitFor(report.Overall)
}

func cmdCollect(args []string, out io.Writer) int {
	fs := flag.NewFlagSet("collect", flag.ContinueOnError)
	var cf commonFlags
	bindCommonFlags(fs, &cf)
	only := fs.String("only", "", "run a single collector by system name")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	s, err := resolveSettings(cf, fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "shtopsctl: %v\n", err)
		return 1
	}
	if err := config.ValidateFreePBX(s.freepbx); err != nil {
		fmt.Fprintf(os.Stderr, "shtopsctl: freepbx config invalid: %v\n", err)
		return 1
	}

	reg := collectors.NewRegistry()
	reg.Register(collectors.NewFreePBX(config.ManagerConfig(s.freepbx)))

	var results []collectors.RunResult
	if *only != "" {
		c, ok := reg.Get(*only)
		if !ok {
			fmt.Fprintf(os.Stderr, "shtopsctl: no collector for %q\n", *only)
			return 1
		}
		results = append(results, collectors.Run(c, s.cacheDir))
	} else {
		results = reg.RunAll(s.cacheDir)
	}

	failed := false
	for _, r := range results {
		if r.Err != nil {
			failed = true
			fmt.Fprintf(out, "%s: FAILED: %v\n", r.System, r.Err)
			continue
		}
		fmt.Fprintf(out, "%s: wrote %s in %s\n", r.System, r.Path, r.Duration.Round(time.Millisecond))
	}
	if failed {
		return 1
	}
	return 0
}

func cmdInitConfig(args []string, out io.Writer) int {
	fs := flag.NewFlagSet("init-config", flag.ContinueOnError)
	output := fs.String("output", defaultConfigPath, "where to write the template")
	force := fs.Bool("force", false, "overwrite an existing file")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if err := config.WriteTemplate(*output, *force); err != nil {
		fmt.Fprintf(os.Stderr, "shtopsctl: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "wrote config template to %s\n", *output)
	return 0
}

func exitFor(sev status.Severity) int {
	if sev == status.SeverityOK {
		return 0
	}
	return 2
}

func statusPayload(report status.Report) map[string]any {
	attention := report.Attention
	if attention == nil {
		attention = []status.AttentionItem{}
	}
	cacheView := make(map[string]any, len(report.Cache))
	for system, cf := range report.Cache {
		entry := map[string]any{
			"exists": cf.Exists,
			"fresh":  cf.Fresh,
			"path":   cf.Path,
		}
		if cf.HasAge {
			entry["age_seconds"] = cf.AgeSeconds
		}
		if !cf.CollectedAt.IsZero() {
			entry["collected_at"] = cf.CollectedAt.UTC().Format(time.RFC3339)
		}
		if cf.Err != "" {
			entry["error"] = cf.Err
		}
		cacheView[system] = entry
	}
	return map[string]any{
		"overall_status": report.Overall,
		"attention":      attention,
		"cache":          cacheView,
	}
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
