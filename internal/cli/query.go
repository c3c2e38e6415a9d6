package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var queryRPCURL string

// queryCmd sends a single JSON-RPC request to a running daemon and prints
// the result.
var queryCmd = &cobra.Command{
	Use:   "query <method> [json-params]",
	Short: "Send a JSON-RPC request to a running daemon",
	Long: `Send a single JSON-RPC request to a running priceregd instance.

Examples:
  priceregd query owner
  priceregd query get_price '{"asset":"BTCUSD"}'
  priceregd query set_price '{"caller":"AA...","asset":"BTCUSD","price":42000}'`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)

	queryCmd.Flags().StringVar(&queryRPCURL, "rpc", "http://127.0.0.1:5005/", "JSON-RPC endpoint URL")
}

func runQuery(cmd *cobra.Command, args []string) error {
	method := args[0]

	var params json.RawMessage
	if len(args) == 2 {
		if !json.Valid([]byte(args[1])) {
			return fmt.Errorf("params must be a valid JSON object: %s", args[1])
		}
		params = json.RawMessage(args[1])
	}

	envelope := map[string]interface{}{"method": method}
	if params != nil {
		envelope["params"] = []json.RawMessage{params}
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Post(queryRPCURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	// Pretty-print the response
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, responseBody, "", "  "); err != nil {
		fmt.Fprintln(cmd.OutOrStdout(), string(responseBody))
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), pretty.String())
	return nil
}
