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
package grouping

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig marks problems with the entries the caller supplied.
	ErrConfig = errors.New("invalid grouping configuration")
	// ErrNotFrozen is returned when grouping a module graph that can still change.
	ErrNotFrozen = fmt.Errorf("%w: module graph is not frozen", ErrConfig)
)

// ConfigError describes a bad entry point.
type ConfigError struct {
	Entry  Entry
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Entry == (Entry{}) {
		return fmt.Sprintf("%v: %s", ErrConfig, e.Reason)
	}
	return fmt.Sprintf("%v: entry %q (%s): %s", ErrConfig, e.Entry.Name, e.Entry.Module, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrConfig }
