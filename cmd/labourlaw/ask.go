package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/config"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/orchestrator"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/schema"
)

func askCmd(g *globalFlags, lookup config.LookupFunc) *cobra.Command {
	var jurisdiction, lens, format string

	c := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer one question and exit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lc, err := loadConfig(g, lookup)
			if err != nil {
				return err
			}
			client, err := lc.Client(cmd.Context())
			if err != nil {
				return err
			}
			defer lc.Close()

			res, err := client.Ask(cmd.Context(), schema.Query{
				Text:         strings.Join(args, " "),
				Jurisdiction: jurisdiction,
				LegalLens:    lens,
			})
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), res, format)
		},
	}
	c.Flags().StringVarP(&jurisdiction, "jurisdiction", "j", "Central", "jurisdiction whose documents are searched")
	c.Flags().StringVarP(&lens, "lens", "l", "", "labour code the answer is analysed under (required)")
	c.Flags().StringVar(&format, "format", "text", "output format: text|json")
	_ = c.MarkFlagRequired("lens")
	return c
}

func printResult(w io.Writer, res *orchestrator.Result, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case "text", "":
		_, err := fmt.Fprintln(w, res.Answer)
		return err
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
