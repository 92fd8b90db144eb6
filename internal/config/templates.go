package config

import (
	"fmt"
	"os"
)

func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(appTemplate), 0o600)
}

const appTemplate = `[freepbx]
host = "pbx.lan"
port = 5038
username = "shtops"
secret = "change-me"
connect_timeout_seconds = 5
call_timeout_seconds = 10

[cache]
directory = "cache"
ttl_seconds = 900

[dashboard]
addr = ":8090"
cors_origins = ["http://localhost:3000"]
`
