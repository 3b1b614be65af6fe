package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/paperrank/internal/compose"
	"github.com/matsen/paperrank/internal/config"
	"github.com/matsen/paperrank/internal/embedding"
	"github.com/matsen/paperrank/internal/paper"
	"github.com/matsen/paperrank/internal/similarity"
	"github.com/matsen/paperrank/internal/sink"
)

// Rank modes accepted by --mode besides the single method names.
const rankModeBoth = "both"

var (
	rankData        string
	rankMode        string
	rankTFIDFOutput string
	rankSBERTOutput string
)

func init() {
	rootCmd.AddCommand(rankCmd)

	d := config.Default()
	rankCmd.Flags().StringVar(&rankData, "data", "", "Paper table to rank (.csv, .tsv, .jsonl, .json, .xlsx)")
	rankCmd.Flags().StringVar(&rankMode, "mode", rankModeBoth, "Similarity method: tfidf, sbert or both")
	rankCmd.Flags().StringVar(&rankTFIDFOutput, "tfidf-output", "", "Output JSON for TF-IDF pairs")
	rankCmd.Flags().StringVar(&rankSBERTOutput, "sbert-output", "", "Output JSON for embedding pairs")
	rankCmd.Flags().IntP("top-k", "k", d.Rank.TopK, "Maximum matches per paper")
	rankCmd.Flags().Float64("tfidf-threshold", d.Rank.TFIDFThreshold, "Minimum TF-IDF similarity")
	rankCmd.Flags().Float64("sbert-threshold", d.Rank.SBERTThreshold, "Minimum embedding similarity")
	rankCmd.Flags().String("text-field", d.Rank.TextField, "Text to compare: title, abstract or combined")
	rankCmd.MarkFlagRequired("data")
}

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank the most similar paper pairs within a corpus",
	Long: `Rank, for every paper in a table, the most similar other papers.

Each selected method (TF-IDF and/or sentence embeddings) writes a JSON array
of {id1, id2, title1, title2, similarity, method} records, sorted by query
paper and then by descending similarity. A paper is never matched with
itself.

Arguments are validated before the table is read.`,
	Args: cobra.NoArgs,
	RunE: runRank,
}

// RankResult describes the output of one method.
type RankResult struct {
	Method    similarity.Method `json:"method"`
	Output    string            `json:"output"`
	Pairs     int               `json:"pairs"`
	Threshold float64           `json:"threshold"`
}

// RankResponse is the response for the rank command.
type RankResponse struct {
	Data    string       `json:"data"`
	Papers  int          `json:"papers"`
	TopK    int          `json:"top_k"`
	Field   compose.Mode `json:"text_field"`
	Results []RankResult `json:"results"`
}

// rankPlan is the validated form of the rank arguments.
type rankPlan struct {
	methods []similarity.Method
	outputs map[similarity.Method]string
	mode    compose.Mode
	topK    int
}

func (p *rankPlan) threshold(rc config.RankConfig, m similarity.Method) float64 {
	if m == similarity.MethodSBERT {
		return rc.SBERTThreshold
	}
	return rc.TFIDFThreshold
}

// validateRank checks every rank argument without touching the data file.
func validateRank(data, mode, tfidfOutput, sbertOutput string, rc config.RankConfig) (*rankPlan, error) {
	if data == "" {
		return nil, fmt.Errorf("--data is required")
	}
	if _, err := paper.FormatOf(data); err != nil {
		return nil, err
	}

	var methods []similarity.Method
	switch strings.ToLower(mode) {
	case rankModeBoth:
		methods = []similarity.Method{similarity.MethodTFIDF, similarity.MethodSBERT}
	default:
		m, err := similarity.ParseMethod(mode)
		if err != nil {
			return nil, fmt.Errorf("invalid --mode %q (valid: tfidf, sbert, both)", mode)
		}
		methods = []similarity.Method{m}
	}

	textMode, err := compose.ParseMode(rc.TextField)
	if err != nil {
		return nil, err
	}
	if rc.TopK <= 0 {
		return nil, fmt.Errorf("--top-k must be positive, got %d", rc.TopK)
	}

	flagOutputs := map[similarity.Method]string{
		similarity.MethodTFIDF: tfidfOutput,
		similarity.MethodSBERT: sbertOutput,
	}
	outputs := make(map[similarity.Method]string, len(methods))
	seen := map[string]similarity.Method{}
	for _, m := range methods {
		out := flagOutputs[m]
		if out == "" {
			return nil, fmt.Errorf("--%s-output is required for --mode %s", m.Flag(), mode)
		}
		clean := filepath.Clean(out)
		if clean == filepath.Clean(data) {
			return nil, fmt.Errorf("--%s-output would overwrite the input table", m.Flag())
		}
		if other, dup := seen[clean]; dup {
			return nil, fmt.Errorf("--%s-output and --%s-output name the same file", other.Flag(), m.Flag())
		}
		seen[clean] = m
		outputs[m] = out
	}

	return &rankPlan{methods: methods, outputs: outputs, mode: textMode, topK: rc.TopK}, nil
}

// newStrategy builds the similarity strategy for m from the run config.
func newStrategy(m similarity.Method) (similarity.Strategy, error) {
	if m == similarity.MethodTFIDF {
		return similarity.NewLexical(cfg.Rank.MaxFeatures), nil
	}
	provider, err := embedding.NewProvider(cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", similarity.ErrModelUnavailable, err)
	}
	return similarity.NewSemantic(provider, cfg.Embedding.BatchSize), nil
}

func newEngine(m similarity.Method) (*similarity.Engine, error) {
	strategy, err := newStrategy(m)
	if err != nil {
		return nil, err
	}
	return similarity.NewEngine(strategy,
		similarity.WithMaxCells(cfg.Rank.MaxMatrixCells),
		similarity.WithLogger(logger),
	), nil
}

func runRank(cmd *cobra.Command, args []string) error {
	plan, err := validateRank(rankData, rankMode, rankTFIDFOutput, rankSBERTOutput, cfg.Rank)
	if err != nil {
		exitWithErr(err)
	}

	papers, err := paper.Load(rankData)
	if err != nil {
		exitWithErr(err)
	}
	logger.Info("loaded papers", "path", rankData, "papers", len(papers))

	resp := RankResponse{
		Data:   rankData,
		Papers: len(papers),
		TopK:   plan.topK,
		Field:  plan.mode,
	}
	for _, m := range plan.methods {
		engine, err := newEngine(m)
		if err != nil {
			exitWithErr(err)
		}

		threshold := plan.threshold(cfg.Rank, m)
		pairs, err := engine.RankSelf(cmd.Context(), papers, plan.mode, similarity.Options{
			TopK:      plan.topK,
			Threshold: threshold,
		})
		if err != nil {
			exitWithErr(fmt.Errorf("%s ranking: %w", m, err))
		}

		out := plan.outputs[m]
		if err := sink.WritePairs(out, pairs); err != nil {
			exitWithError(ExitError, "writing %s: %v", out, err)
		}
		resp.Results = append(resp.Results, RankResult{
			Method:    m,
			Output:    out,
			Pairs:     len(pairs),
			Threshold: threshold,
		})
	}

	if humanOutput {
		outputHuman("Ranked %d papers from %s (top %d, %s)\n", resp.Papers, resp.Data, resp.TopK, resp.Field)
		for _, r := range resp.Results {
			outputHuman("  %-5s %d pairs >= %.2f -> %s\n", r.Method, r.Pairs, r.Threshold, r.Output)
		}
		return nil
	}
	return outputJSON(resp)
}
