package main

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/matsen/paperrank/internal/huggingface"
)

var (
	fetchHFURLs      string
	fetchHFOutputDir string
	fetchHFSplit     string
)

func init() {
	fetchCmd.AddCommand(fetchHFCmd)

	fetchHFCmd.Flags().StringVar(&fetchHFURLs, "urls", "", "YAML mapping of name to Hugging Face dataset or space URL")
	fetchHFCmd.Flags().StringVar(&fetchHFOutputDir, "output-dir", "", "Directory for <name>.json files and summary.json")
	fetchHFCmd.Flags().StringVar(&fetchHFSplit, "split", "", "Dataset split (default: first split)")
	fetchHFCmd.MarkFlagRequired("urls")
	fetchHFCmd.MarkFlagRequired("output-dir")
}

var fetchHFCmd = &cobra.Command{
	Use:   "hf",
	Short: "Download Hugging Face dataset and space URLs as JSON",
	Long: `Download every URL of a YAML name-to-URL mapping.

Dataset URLs (huggingface.co/datasets/<owner>/<name>) are saved with all rows
of the chosen split. Space URLs (huggingface.co/spaces/<owner>/<name>) are
saved with the space metadata and the rows of its first associated dataset.

Each name is written to <output-dir>/<name>.json; summary.json records the
status of every name. A failed URL does not stop the batch.`,
	Args: cobra.NoArgs,
	RunE: runFetchHF,
}

// FetchHFResponse is the response for the fetch hf command.
type FetchHFResponse struct {
	OutputDir string              `json:"output_dir"`
	Succeeded int                 `json:"succeeded"`
	Failed    int                 `json:"failed"`
	Summary   huggingface.Summary `json:"summary"`
}

func runFetchHF(cmd *cobra.Command, args []string) error {
	urls, err := huggingface.LoadURLs(fetchHFURLs)
	if err != nil {
		exitWithErr(err)
	}

	summary, err := newHuggingFaceClient().BatchFetch(cmd.Context(), urls, fetchHFOutputDir, fetchHFSplit, logger)
	if err != nil {
		exitWithErr(err)
	}

	resp := FetchHFResponse{
		OutputDir: fetchHFOutputDir,
		Succeeded: summary.Succeeded(),
		Failed:    len(summary) - summary.Succeeded(),
		Summary:   summary,
	}
	if humanOutput {
		names := make([]string, 0, len(summary))
		for name := range summary {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			e := summary[name]
			if e.Status == huggingface.StatusSuccess {
				outputHuman("  ok    %-24s %d rows -> %s\n", name, e.Count, e.OutputFile)
			} else {
				outputHuman("  error %-24s %s\n", name, truncateString(e.Error, TitleMaxLen))
			}
		}
		outputHuman("%d succeeded, %d failed\n", resp.Succeeded, resp.Failed)
		return nil
	}
	return outputJSON(resp)
}
