package main

import (
	"os"
	"path/filepath"

	"github.com/dfinet/dfitx/infrastructure/logger"
)

var log = logger.RegisterSubSystem("DFTX")

type stderrWriter struct{}

func (stderrWriter) Write(p []byte) (int, error) { return os.Stderr.Write(p) }
func (stderrWriter) Close() error                { return nil }

// initLog starts the logging backend when logging was asked for. Logs go to
// a rotated file in logDir, or to stderr when only a level is given.
func initLog(logDir, levelSpec string) error {
	if logDir == "" && levelSpec == "" {
		return nil
	}
	if levelSpec != "" {
		err := logger.ParseAndSetLogLevels(levelSpec)
		if err != nil {
			return err
		}
	}

	var err error
	if logDir != "" {
		err = logger.BackendLog.AddLogFile(filepath.Join(logDir, "dfitx.log"), logger.LevelTrace)
	} else {
		err = logger.BackendLog.AddLogWriter(stderrWriter{}, logger.LevelTrace)
	}
	if err != nil {
		return err
	}
	return logger.BackendLog.Run()
}
