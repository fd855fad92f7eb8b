package main

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// newLogger builds the JSON slog logger. Records go to stdout when console
// is set and to a rotated file when path is non-empty.
func newLogger(path string, console bool) (*slog.Logger, func()) {
	var writers []io.Writer
	if console {
		writers = append(writers, os.Stdout)
	}

	closeFn := func() {}
	if path != "" {
		// lumberjack handles rotation and is safe for concurrent writes.
		lj := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    50, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		writers = append(writers, lj)
		closeFn = func() { lj.Close() }
	}

	var w io.Writer = io.Discard
	switch len(writers) {
	case 0:
	case 1:
		w = writers[0]
	default:
		w = io.MultiWriter(writers...)
	}
	return slog.New(slog.NewJSONHandler(w, nil)), closeFn
}
