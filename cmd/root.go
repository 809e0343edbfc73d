package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string
var hashBits int

// RootCmd is the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:   "dwarfidx",
	Short: "An in-memory index over DWARF debug info in ELF object files",
	Long: `dwarfidx builds a fast, in-memory index from (name, DIE tag) pairs to
byte locations of Debugging Information Entries across a set of 64-bit
little-endian ELF object files, so a named type or variable definition
can be found across many compilation units without walking the DWARF
tree every time.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). It only needs to
// happen once to RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	RootCmd.AddCommand(findCmd)
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.dwarfidx.yaml)")
	RootCmd.PersistentFlags().IntVar(&hashBits, "hash-bits", 17, "size the name hash table as 2^N slots")
	viper.BindPFlag("hash-bits", RootCmd.PersistentFlags().Lookup("hash-bits"))

	cobra.OnInitialize(initConfig)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".dwarfidx")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
