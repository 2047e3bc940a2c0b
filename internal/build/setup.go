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
package build

import (
	"io"

	"github.com/spf13/viper"

	"bennypowers.dev/spezza/config"
	"bennypowers.dev/spezza/fs"
	"bennypowers.dev/spezza/internal/logging"
)

// Setup loads the configuration bound to v and creates the logger the
// commands share. Logs go to w.
func Setup(v *viper.Viper, fsys fs.FileSystem, args []string, w io.Writer) (*config.Config, *logging.Logger, error) {
	logger, err := logging.New(v.GetString("logLevel"), v.GetString("logFormat"), w)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load(v, fsys, args...)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("root %s, %d entries, %d html files", cfg.Root, len(cfg.Entries), len(cfg.HTML))
	return cfg, logger, nil
}
