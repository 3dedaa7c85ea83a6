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

// Package command wires the vertex binary's cobra subcommands: run and
// replay, both loading a topology document through pkg/config and
// driving it with pkg/engine.
package command

import "github.com/spf13/cobra"

// NewRootCommand returns the top-level "vertex" command with run and
// replay registered under it.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "vertex",
		Short: "Run a single stream-processing vertex",
	}
	root.AddCommand(NewRunCommand())
	root.AddCommand(NewReplayCommand())
	return root
}
