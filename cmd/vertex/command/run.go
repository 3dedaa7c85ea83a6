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

package command

import "github.com/spf13/cobra"

// NewRunCommand starts one vertex from a topology document: it wires the
// configured operator to its input/output edges and steps it until its
// input is exhausted (a local "inmem" dry run) or it is asked to shut
// down (a real kafka/jetstream/redisstream-backed vertex, which runs
// until signaled).
func NewRunCommand() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a vertex against its configured edges",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVertex(configPath, false)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to the vertex topology document")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}
