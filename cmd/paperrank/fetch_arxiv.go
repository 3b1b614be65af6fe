package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/paperrank/internal/arxiv"
	"github.com/matsen/paperrank/internal/paper"
)

var (
	fetchArxivID      string
	fetchArxivSources string
)

func init() {
	fetchCmd.AddCommand(fetchArxivCmd)

	fetchArxivCmd.Flags().StringVar(&fetchArxivID, "arxiv-id", "", "Fetch and print a single arXiv paper")
	fetchArxivCmd.Flags().StringVar(&fetchArxivSources, "sources", "", "Source table with an arxiv_id column, rewritten in place")
	fetchArxivCmd.MarkFlagsOneRequired("arxiv-id", "sources")
	fetchArxivCmd.MarkFlagsMutuallyExclusive("arxiv-id", "sources")
}

var fetchArxivCmd = &cobra.Command{
	Use:   "arxiv",
	Short: "Fetch title, abstract and authors from the arXiv API",
	Long: `Fetch title, abstract and authors from the arXiv API.

With --arxiv-id, fetch one paper and print it.

With --sources, look up every row's arxiv_id and write title, abstract and
authors back into the table. Requests are spaced one second apart. A row
whose lookup fails is logged and left unchanged.`,
	Args: cobra.NoArgs,
	RunE: runFetchArxiv,
}

// FetchArxivResponse is the response for a --sources run.
type FetchArxivResponse struct {
	Sources string `json:"sources"`
	*arxiv.FillResult
}

func runFetchArxiv(cmd *cobra.Command, args []string) error {
	client := newArxivClient()

	if fetchArxivID != "" {
		p, err := client.GetPaper(cmd.Context(), fetchArxivID)
		if err != nil {
			exitWithErr(err)
		}
		if humanOutput {
			outputHuman("%s\n%s\n\n%s\n", p.Title, strings.Join(p.Authors, paper.AuthorSeparator), p.Abstract)
			return nil
		}
		return outputJSON(p)
	}

	if _, err := paper.FormatOf(fetchArxivSources); err != nil {
		exitWithErr(err)
	}
	table, err := paper.ReadTable(fetchArxivSources)
	if err != nil {
		exitWithErr(err)
	}

	result, err := client.FillTable(cmd.Context(), table, logger)
	if err != nil {
		exitWithErr(err)
	}
	if err := paper.WriteTable(fetchArxivSources, table); err != nil {
		exitWithError(ExitError, "writing %s: %v", fetchArxivSources, err)
	}

	if humanOutput {
		outputHuman("Filled %d of %d rows in %s", result.Filled, result.Total, fetchArxivSources)
		if len(result.Failed) > 0 {
			outputHuman(" (%d failed: %s)", len(result.Failed), strings.Join(result.Failed, ", "))
		}
		fmt.Println()
		return nil
	}
	return outputJSON(FetchArxivResponse{Sources: fetchArxivSources, FillResult: result})
}
