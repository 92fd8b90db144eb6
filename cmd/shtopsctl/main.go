package main

import (
	"fmt"
	"io"
	"os"

	"github.com/danmuck/shtops/internal/logging"
)

const usage = `usage: shtopsctl [command] [flags]

commands:
  status       show cache freshness and overall state (default)
  attention    list conditions that need attention
  collect      run the collectors and refresh the cache
  init-config  write a starter shtops.toml

Run 'shtopsctl <command> -h' for command flags.
`

// Exit codes: 0 everything ok, 1 operational failure,
// 2 something needs attention (or bad usage).
func main() {
	logging.ConfigureRuntime()
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	if len(args) == 0 {
		return cmdStatus(nil, out)
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "status":
		return cmdStatus(rest, out)
	case "attention":
		return cmdAttention(rest, out)
	case "collect":
		return cmdCollect(rest, out)
	case "init-config":
		return cmdInitConfig(rest, out)
	case "-h", "--help", "help":
		fmt.Fprint(out, usage)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "shtopsctl: unknown command %q\n%s", cmd, usage)
		return 2
	}
}
