package cmd

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type eventFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// joinCmd connects to the room, announces the display name, and streams
// events to stdout. Lines typed on stdin are posted as messages; "/name X"
// requests a rename; "/quit" leaves.
var joinCmd = &cobra.Command{
	Use:   "join",
	Short: "Join the room and follow the conversation",
	Run: func(cmd *cobra.Command, args []string) {
		name := viper.GetString(displayNameKey)
		if name == "" {
			name = "anonymous"
		}

		wsURL := strings.Replace(serverURL, "http", "ws", 1) + "/ws"
		conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error connecting to %s: %v\n", wsURL, err)
			return
		}
		defer conn.Close()

		join := eventFrame{Event: "newUser"}
		join.Data, _ = json.Marshal(map[string]string{"name": name})
		if err := conn.WriteJSON(join); err != nil {
			fmt.Fprintf(os.Stderr, "Error joining: %v\n", err)
			return
		}

		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				var frame eventFrame
				if err := conn.ReadJSON(&frame); err != nil {
					return
				}
				printEvent(frame)
			}
		}()

		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			switch {
			case line == "":
				continue
			case line == "/quit":
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				select {
				case <-done:
				case <-time.After(time.Second):
				}
				return
			case strings.HasPrefix(line, "/name "):
				rename := eventFrame{Event: "nameChange"}
				rename.Data, _ = json.Marshal(map[string]string{"name": strings.TrimPrefix(line, "/name ")})
				if err := conn.WriteJSON(rename); err != nil {
					fmt.Fprintf(os.Stderr, "Error renaming: %v\n", err)
					return
				}
			default:
				postMessage(name, line)
			}
		}
		<-done
	},
}

func printEvent(frame eventFrame) {
	switch frame.Event {
	case "incomingMessage":
		var msg struct {
			Message string `json:"message"`
			Name    string `json:"name"`
		}
		if json.Unmarshal(frame.Data, &msg) == nil {
			fmt.Printf("%s: %s\n", msg.Name, msg.Message)
		}
	case "newConnection":
		var presence struct {
			Participants []struct {
				Name string `json:"name"`
			} `json:"participants"`
		}
		if json.Unmarshal(frame.Data, &presence) == nil {
			names := make([]string, 0, len(presence.Participants))
			for _, p := range presence.Participants {
				names = append(names, p.Name)
			}
			fmt.Printf("* participants: %s\n", strings.Join(names, ", "))
		}
	case "nameChanged":
		var rename struct {
			Name string `json:"name"`
		}
		if json.Unmarshal(frame.Data, &rename) == nil {
			fmt.Printf("* now known as %s\n", rename.Name)
		}
	case "userDisconnected":
		var gone struct {
			ID string `json:"id"`
		}
		if json.Unmarshal(frame.Data, &gone) == nil {
			fmt.Printf("* %s disconnected\n", gone.ID)
		}
	case "existingUserError":
		var taken struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(frame.Data, &taken) == nil {
			fmt.Fprintf(os.Stderr, "%s\n", taken.Message)
		}
	}
}

func postMessage(name, message string) {
	body, err := json.Marshal(map[string]string{"message": message, "name": name})
	if err != nil {
		return
	}
	resp, err := http.Post(serverURL+"/message", "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error posting message: %v\n", err)
		return
	}
	_ = resp.Body.Close()
}

func init() {
	rootCmd.AddCommand(joinCmd)
}
