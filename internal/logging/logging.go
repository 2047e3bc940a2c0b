/*
Copyright © 2026 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

// Package logging provides the CLI's zerolog setup and adapts it to the
// small printf-style Logger interface used by library packages.
package logging

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
)

// Logger adapts a zerolog.Logger to modgraph.Logger.
type Logger struct {
	zerolog.Logger
}

// New returns a logger writing human-readable lines to w at the given level
// (debug, info, warn or error). "console" format uses zerolog's
// ConsoleWriter; "json" writes raw zerolog JSON lines.
func New(level, format string, w io.Writer) (*Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	var out io.Writer = w
	if format != "json" {
		out = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.TimeOnly,
		}
	}
	return &Logger{zerolog.New(out).Level(lvl).With().Timestamp().Logger()}, nil
}

// ParseLevel maps a level name to a zerolog level. An empty name is "info".
func ParseLevel(level string) (zerolog.Level, error) {
	switch level {
	case "":
		return zerolog.InfoLevel, nil
	case "debug", "info", "warn", "error":
		return zerolog.ParseLevel(level)
	default:
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", level)
	}
}

// Warning logs a printf-style message at warn level.
func (l *Logger) Warning(format string, args ...any) {
	l.Warn().Msgf(format, args...)
}

// Debug logs a printf-style message at debug level.
func (l *Logger) Debug(format string, args ...any) {
	l.Logger.Debug().Msgf(format, args...)
}

// Infof logs a printf-style message at info level.
func (l *Logger) Infof(format string, args ...any) {
	l.Info().Msgf(format, args...)
}
