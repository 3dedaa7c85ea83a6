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

// NewReplayCommand restores a vertex's operator state from its last
// captured snapshot before resuming the same run loop NewRunCommand
// drives. Restoring always goes through the snapshot.Store named by the
// topology document's snapshot section, independent of the vertex's
// data edge: a real transport's own write-through snapshot persistence
// (its Writer's OfferSnapshot) is bypassed in favor of the one durable
// checkpoint path every vertex kind shares.
func NewReplayCommand() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Restore a vertex's state from its last snapshot, then resume running",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVertex(configPath, true)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to the vertex topology document")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}
