/*
Copyright 2022 The Numaproj Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package engine

import "context"

// RunBlocking gives a non-cooperative Driver its own goroutine, returning
// a channel that receives the eventual terminal error (nil on normal
// completion). Unlike a cooperative Driver sharing a worker, a blocking
// driver may spend unbounded time per Step; RunBlocking simply loops
// Step until Done or ctx is canceled, on a dedicated goroutine.
func RunBlocking(ctx context.Context, d *Driver) <-chan error {
	result := make(chan error, 1)
	go func() {
		result <- RunToCompletion(ctx, d)
	}()
	return result
}
