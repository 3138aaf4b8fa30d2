package cli

import (
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/manualqa/internal/adapters/driving/mcp"
)

var (
	mcpPort int
	mcpHost string
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve manuals to AI assistants over MCP",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start a Model Context Protocol server backed by your ingested manuals.

Tools: ask, retrieve, list_collections, ingest.
Resources: manualqa://collections and manualqa://collections/{collectionId}.

Without --port the server speaks JSON-RPC over stdio, which is what desktop
assistants expect. With --port it serves the streamable HTTP transport at
/mcp, which is handy for the MCP Inspector.

Examples:
  manualqa mcp serve
  manualqa mcp serve --port 8080

Assistant configuration:
  {
    "mcpServers": {
      "manualqa": {
        "command": "/path/to/manualqa",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "HTTP port (0 = use stdio)")
	mcpServeCmd.Flags().StringVar(&mcpHost, "host", "localhost", "HTTP listen host")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	server, err := mcp.NewServer(&mcp.Ports{
		Retrieval:  retrievalService,
		Answer:     answerService,
		Collection: collectionService,
		Ingest:     ingestService,
		TopK:       defaultTopK,
	})
	if err != nil {
		return err
	}

	if mcpPort <= 0 {
		return server.Run(cmd.Context())
	}

	addr := net.JoinHostPort(mcpHost, strconv.Itoa(mcpPort))
	fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://%s%s\n", addr, mcp.EndpointPath)
	return server.RunHTTP(cmd.Context(), addr)
}
