package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/paperrank/internal/compose"
	"github.com/matsen/paperrank/internal/config"
	"github.com/matsen/paperrank/internal/paper"
	"github.com/matsen/paperrank/internal/similarity"
	"github.com/matsen/paperrank/internal/sink"
)

var (
	scoreSource string
	scoreTarget string
	scoreOutput string
	scoreMethod string
)

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().StringVar(&scoreSource, "source", "", "Source paper table")
	scoreCmd.Flags().StringVar(&scoreTarget, "target", "", "Target paper table to score")
	scoreCmd.Flags().StringVarP(&scoreOutput, "output", "o", "", "Output table (target rows plus mean_similarity)")
	scoreCmd.Flags().StringVar(&scoreMethod, "method", similarity.MethodSBERT.Flag(), "Similarity method: tfidf or sbert")
	scoreCmd.Flags().String("text-field", config.Default().Rank.TextField, "Text to compare: title, abstract or combined")
	scoreCmd.MarkFlagRequired("source")
	scoreCmd.MarkFlagRequired("target")
	scoreCmd.MarkFlagRequired("output")
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score target papers by mean similarity to a set of source papers",
	Long: `Score every paper of a target table by its mean similarity to all
papers of a source table.

The output is the target table with a mean_similarity column appended,
written in the format of the --output extension.`,
	Args: cobra.NoArgs,
	RunE: runScore,
}

// ScoreResponse is the response for the score command.
type ScoreResponse struct {
	Source  string            `json:"source"`
	Target  string            `json:"target"`
	Output  string            `json:"output"`
	Method  similarity.Method `json:"method"`
	Sources int               `json:"sources"`
	Targets int               `json:"targets"`
	Mean    float64           `json:"mean"`
	Max     float64           `json:"max"`
}

type scorePlan struct {
	method similarity.Method
	mode   compose.Mode
}

// validateScore checks the score arguments without reading either table.
func validateScore(source, target, output, method, textField string) (*scorePlan, error) {
	for _, p := range []string{source, target, output} {
		if _, err := paper.FormatOf(p); err != nil {
			return nil, err
		}
	}
	m, err := similarity.ParseMethod(method)
	if err != nil {
		return nil, err
	}
	mode, err := compose.ParseMode(textField)
	if err != nil {
		return nil, err
	}
	return &scorePlan{method: m, mode: mode}, nil
}

func runScore(cmd *cobra.Command, args []string) error {
	plan, err := validateScore(scoreSource, scoreTarget, scoreOutput, scoreMethod, cfg.Rank.TextField)
	if err != nil {
		exitWithErr(err)
	}

	sources, err := paper.Load(scoreSource)
	if err != nil {
		exitWithErr(fmt.Errorf("source: %w", err))
	}
	targetTable, err := paper.ReadTable(scoreTarget)
	if err != nil {
		exitWithErr(fmt.Errorf("target: %w", err))
	}
	targets, err := targetTable.Papers()
	if err != nil {
		exitWithErr(fmt.Errorf("target: %w", err))
	}

	engine, err := newEngine(plan.method)
	if err != nil {
		exitWithErr(err)
	}
	scores, err := engine.ScoreAgainst(cmd.Context(), sources, targets, plan.mode)
	if err != nil {
		exitWithErr(err)
	}

	if err := sink.WriteScores(scoreOutput, targetTable, scores); err != nil {
		exitWithError(ExitError, "writing %s: %v", scoreOutput, err)
	}

	resp := ScoreResponse{
		Source:  scoreSource,
		Target:  scoreTarget,
		Output:  scoreOutput,
		Method:  plan.method,
		Sources: len(sources),
		Targets: len(targets),
	}
	resp.Mean, resp.Max = summarize(scores)

	if humanOutput {
		outputHuman("Scored %d targets against %d sources (%s)\n", resp.Targets, resp.Sources, resp.Method)
		outputHuman("  mean %.3f, max %.3f -> %s\n", resp.Mean, resp.Max, resp.Output)
		return nil
	}
	return outputJSON(resp)
}

// summarize returns the mean and maximum of scores.
func summarize(scores []float64) (mean, peak float64) {
	if len(scores) == 0 {
		return 0, 0
	}
	peak = scores[0]
	var sum float64
	for _, s := range scores {
		sum += s
		if s > peak {
			peak = s
		}
	}
	return sum / float64(len(scores)), peak
}
