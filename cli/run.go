// The Licensed Work is (c) 2022 Sygma
// SPDX-License-Identifier: LGPL-3.0-only

package cli

import (
	"github.com/spf13/cobra"

	"github.com/solbridge-labs/solbridge/app"
)

var (
	runCMD = &cobra.Command{
		Use:   "run",
		Short: "Run the bridge orchestration engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run()
		},
	}
)
