package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// postCmd sends one chat message over the HTTP boundary.
var postCmd = &cobra.Command{
	Use:   "post [message]",
	Short: "Post a single message to the room",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		name := viper.GetString(displayNameKey)
		if name == "" {
			name = "anonymous"
		}

		body, err := json.Marshal(map[string]string{
			"message": strings.Join(args, " "),
			"name":    name,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding message: %v\n", err)
			return
		}

		resp, err := http.Post(serverURL+"/message", "application/json", bytes.NewReader(body))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error posting message: %v\n", err)
			return
		}
		defer resp.Body.Close()

		var reply map[string]string
		if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading response: %v\n", err)
			return
		}
		if resp.StatusCode != http.StatusOK {
			fmt.Fprintf(os.Stderr, "Rejected: %s\n", reply["error"])
			return
		}
		fmt.Println(reply["message"])
	},
}

func init() {
	rootCmd.AddCommand(postCmd)
}
