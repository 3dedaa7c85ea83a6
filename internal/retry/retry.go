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

// Package retry gives the handful of operations that talk to an outside
// store (a snapshot backend, an external watermark store) the same
// exponential-backoff-with-jitter idiom the teacher's forwarder uses for
// acking a buffer partition, instead of each call site inventing its own
// retry loop.
package retry

import (
	"time"

	"k8s.io/apimachinery/pkg/util/wait"
)

// DefaultBackoff mirrors pkg/shared/util/retry.go's DefaultRetryBackoff.
var DefaultBackoff = wait.Backoff{
	Steps:    10,
	Duration: 5 * time.Millisecond,
	Factor:   2.0,
	Jitter:   0.1,
}

// Do retries f under DefaultBackoff until it returns a nil error or the
// backoff is exhausted, returning the last error seen.
func Do(f func() error) error {
	var lastErr error
	err := wait.ExponentialBackoff(DefaultBackoff, func() (bool, error) {
		if lastErr = f(); lastErr != nil {
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		return lastErr
	}
	return nil
}
