// The Licensed Work is (c) 2022 Sygma
// SPDX-License-Identifier: LGPL-3.0-only

package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	ConfigFlagName = "config"
	StoreFlagName  = "store"
)

func BindFlags(rootCMD *cobra.Command) {
	rootCMD.PersistentFlags().String(ConfigFlagName, "env", "path to the configuration file, or 'env' for environment-only configuration")
	_ = viper.BindPFlag(ConfigFlagName, rootCMD.PersistentFlags().Lookup(ConfigFlagName))

	rootCMD.PersistentFlags().String(StoreFlagName, "", "path to the session store directory, overrides the configured one")
	_ = viper.BindPFlag(StoreFlagName, rootCMD.PersistentFlags().Lookup(StoreFlagName))
}
