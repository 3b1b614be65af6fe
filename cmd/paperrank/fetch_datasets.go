package main

import (
	"github.com/spf13/cobra"

	"github.com/matsen/paperrank/internal/cache"
	"github.com/matsen/paperrank/internal/dataset"
	"github.com/matsen/paperrank/internal/paper"
)

var (
	fetchDatasetsManifest    string
	fetchDatasetsOutput      string
	fetchDatasetsForceReload bool
)

func init() {
	fetchCmd.AddCommand(fetchDatasetsCmd)

	fetchDatasetsCmd.Flags().StringVar(&fetchDatasetsManifest, "manifest", "", "Dataset manifest (.yaml or .csv with hf_name, conference, year)")
	fetchDatasetsCmd.Flags().StringVarP(&fetchDatasetsOutput, "output", "o", "", "Output target table")
	fetchDatasetsCmd.Flags().BoolVar(&fetchDatasetsForceReload, "force-reload", false, "Ignore cached datasets and fetch again")
	fetchDatasetsCmd.MarkFlagRequired("manifest")
	fetchDatasetsCmd.MarkFlagRequired("output")
}

var fetchDatasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "Collect conference paper datasets into one target table",
	Long: `Fetch every conference dataset listed in the manifest from Hugging Face,
normalize it to id, title, authors, abstract, conf_info and pdf columns,
and write the concatenation as a single target table.

Fetched datasets are cached per <conference>-<year>; --force-reload
fetches them again.`,
	Args: cobra.NoArgs,
	RunE: runFetchDatasets,
}

// FetchDatasetsResponse is the response for the fetch datasets command.
type FetchDatasetsResponse struct {
	Output   string `json:"output"`
	Datasets int    `json:"datasets"`
	Papers   int    `json:"papers"`
	Cache    string `json:"cache"`
}

func runFetchDatasets(cmd *cobra.Command, args []string) error {
	if _, err := paper.FormatOf(fetchDatasetsOutput); err != nil {
		exitWithErr(err)
	}
	infos, err := dataset.LoadManifest(fetchDatasetsManifest)
	if err != nil {
		exitWithErr(err)
	}

	store, err := cache.Open(cfg.Cache)
	if err != nil {
		exitWithError(ExitConfigError, "opening cache: %v", err)
	}
	defer store.Close()

	collector := dataset.NewCollector(newHuggingFaceClient(), store, logger)
	table, err := collector.Collect(cmd.Context(), infos, fetchDatasetsForceReload)
	if err != nil {
		store.Close()
		exitWithErr(err)
	}

	if err := paper.WriteTable(fetchDatasetsOutput, table); err != nil {
		store.Close()
		exitWithError(ExitError, "writing %s: %v", fetchDatasetsOutput, err)
	}

	resp := FetchDatasetsResponse{
		Output:   fetchDatasetsOutput,
		Datasets: len(infos),
		Papers:   table.Len(),
		Cache:    cfg.Cache.Backend,
	}
	if humanOutput {
		outputHuman("Wrote %d papers from %d datasets to %s\n", resp.Papers, resp.Datasets, resp.Output)
		return nil
	}
	return outputJSON(resp)
}
