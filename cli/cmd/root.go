package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile   string
	serverURL string
)

const (
	serverURLKey   = "server_url"
	displayNameKey = "display_name"
)

var rootCmd = &cobra.Command{
	Use:   "parlor",
	Short: "Command-line client for the parlor chatroom",
	Long: `parlor talks to a parlord server: join the room and follow the
conversation, or post a single message from a script.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.parlor.yaml)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "server base URL (default http://localhost:8080)")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.SetConfigName(".parlor")
			viper.SetConfigType("yaml")
			cfgFile = filepath.Join(home, ".parlor.yaml")
		}
	}

	viper.SetDefault(serverURLKey, "http://localhost:8080")
	viper.SetEnvPrefix("parlor")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: could not read config: %v\n", err)
		}
	}

	if serverURL == "" {
		serverURL = viper.GetString(serverURLKey)
	}
}
