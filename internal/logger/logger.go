package logger

import (
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

// New builds a text logger writing to stdout and, when filePath is set, appending to that file.
// An unparsable level falls back to info.
func New(levelStr, filePath string) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	writers := []io.Writer{os.Stdout}
	if filePath != "" {
		file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
		if err != nil {
			return nil, eris.Wrapf(err, "open log file %s", filePath)
		}
		writers = append(writers, file)
	}
	log.SetOutput(io.MultiWriter(writers...))

	return log, nil
}
