package main

import (
	"fmt"

	"github.com/aretw0/vozgraph/internal/cli"
	"github.com/aretw0/vozgraph/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts vozgraph as an MCP Server so AI agents can analyze and record
voice commands and build session automata as tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		cfg, logger, err := loadRuntime(cmd)
		if err != nil {
			return err
		}
		eng, err := cli.NewEngine(cfg, logger, nil)
		if err != nil {
			return err
		}
		defer eng.Close()

		srv := mcp.NewServer(eng,
			mcp.WithLogger(logger),
			mcp.WithMaxInputSize(cfg.Input.MaxSize),
		)

		switch transport {
		case "stdio":
			// Logs go to Stderr so they never corrupt JSON-RPC on Stdout.
			logger.Info("starting MCP server", "transport", transport)
			return srv.ServeStdio()
		case "sse":
			sc := cli.NewSignalContext(cmd.Context())
			defer sc.Cancel()

			addr := fmt.Sprintf(":%d", port)
			if err := srv.ServeSSE(sc, addr, fmt.Sprintf("http://localhost:%d", port)); err != nil {
				return err
			}
			logger.Info("MCP server stopped gracefully", "signal", sc.Signal())
			return nil
		default:
			return fmt.Errorf("unknown transport %q (supported: stdio, sse)", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8081, "Port to listen on (only for SSE)")
}
