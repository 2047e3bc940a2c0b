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
package chunkgraph

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"bennypowers.dev/spezza/chunk"
	"bennypowers.dev/spezza/modgraph"
)

// Hashes computes every chunk's content hash in parallel. Chunks hash
// independently, reading only their own members and the module graph, so
// this is a plain fan-out. parallel <= 0 uses one worker per CPU.
//
// The first invariant violation cancels the remaining work and is returned.
func (g *Graph) Hashes(ctx context.Context, src chunk.ModuleSource, parallel int) (map[modgraph.Ref]uint64, error) {
	if parallel <= 0 {
		parallel = runtime.NumCPU()
	}

	var mu sync.Mutex
	hashes := make(map[modgraph.Ref]uint64, len(g.order))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(parallel)
	for _, c := range g.Chunks() {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			h, err := c.Hash(src)
			if err != nil {
				return err
			}
			mu.Lock()
			hashes[c.ID] = h
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return hashes, nil
}
