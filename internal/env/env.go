package env

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const (
	appName        = "tana"
	configFilename = "config.yaml"
	logFilename    = "tana.log"
)

var (
	TANA_CONFIG_PATH string

	TANA_LOG_PATH string
)

func init() {
	// https://github.com/charmbracelet/log/issues/35
	os.Setenv("CLICOLOR_FORCE", "1")

	// Follow https://specifications.freedesktop.org/basedir-spec/latest/
	if e, found := os.LookupEnv("TANA_CONFIG_PATH"); found && e != "" {
		TANA_CONFIG_PATH = e
	} else {
		TANA_CONFIG_PATH = filepath.Join(xdg.ConfigHome, appName, configFilename)
	}

	if e, found := os.LookupEnv("TANA_LOG_PATH"); found && e != "" {
		TANA_LOG_PATH = e
	} else {
		fp, err := xdg.StateFile(fmt.Sprintf("%s/%s", appName, logFilename))
		if err != nil {
			fp = logFilename
		}
		TANA_LOG_PATH = fp
	}
}
