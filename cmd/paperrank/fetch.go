package main

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/matsen/paperrank/internal/arxiv"
	"github.com/matsen/paperrank/internal/huggingface"
)

func init() {
	rootCmd.AddCommand(fetchCmd)
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch paper metadata from remote sources",
	Long: `Fetch paper metadata from remote sources.

Subcommands:
  arxiv     Fill a source table from the arXiv API
  datasets  Collect conference paper datasets from Hugging Face
  hf        Download Hugging Face dataset and space URLs to JSON`,
}

func newArxivClient() *arxiv.Client {
	return arxiv.NewClient(
		arxiv.WithBaseURL(cfg.Arxiv.BaseURL),
		arxiv.WithInterval(cfg.Arxiv.Interval),
		arxiv.WithHTTPClient(&http.Client{Timeout: cfg.Arxiv.Timeout}),
		arxiv.WithUserAgent("paperrank/"+Version),
	)
}

func newHuggingFaceClient() *huggingface.Client {
	return huggingface.NewClient(
		huggingface.WithHubURL(cfg.HuggingFace.HubURL),
		huggingface.WithDatasetsServerURL(cfg.HuggingFace.DatasetsServerURL),
		huggingface.WithPageSize(cfg.HuggingFace.PageSize),
		huggingface.WithToken(cfg.HuggingFace.Token),
		huggingface.WithHTTPClient(&http.Client{Timeout: cfg.HuggingFace.Timeout}),
	)
}
