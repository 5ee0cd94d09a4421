package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teilomillet/promptstorm/batch"
	"github.com/teilomillet/promptstorm/llm"
	"github.com/teilomillet/promptstorm/optimizer"
)

func newBatchCmd(a *app) *cobra.Command {
	var (
		inputCSV     string
		outputDir    string
		promptColumn string
		categorizer  string
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Optimize every prompt of a CSV file and store them as YAML documents",
		Example: `  promptstorm batch --input-csv prompts.csv --output-dir prompts/
  promptstorm batch --input-csv prompts.csv --output-dir out --prompt-column text --categorizer derived`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}
			opt, err := a.newOptimizer(client)
			if err != nil {
				return err
			}
			f, err := a.newFormatter(client)
			if err != nil {
				return err
			}
			cat, err := a.newCategorizer(categorizer, client, f)
			if err != nil {
				return err
			}

			errOut := cmd.ErrOrStderr()
			progress := batch.WithProgress(func(p batch.Progress) {
				status := "ok"
				if p.Err != nil {
					status = "failed"
				}
				printMuted(errOut, fmt.Sprintf("[%d/%d] %s: %s", p.Index, p.Total, status, shorten(p.Prompt, 50)))
			})

			orch := batch.NewOrchestrator(opt, f, cat, a.logger)
			result, err := orch.RunCSV(cmd.Context(), inputCSV, promptColumn, outputDir, progress)
			if result != nil {
				printResult(cmd, result)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&inputCSV, "input-csv", "", "CSV file holding the prompts")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory receiving the YAML documents")
	cmd.Flags().StringVar(&promptColumn, "prompt-column", batch.DefaultPromptColumn, "CSV column holding the prompts")
	cmd.Flags().StringVar(&categorizer, "categorizer", "direct", "Categorization strategy: direct, derived")
	_ = cmd.MarkFlagRequired("input-csv")
	_ = cmd.MarkFlagRequired("output-dir")
	return cmd
}

func (a *app) newCategorizer(name string, client llm.Completer, f *optimizer.Formatter) (optimizer.Categorizer, error) {
	switch name {
	case "", "direct":
		return optimizer.NewDirectCategorizer(client, a.cfg.Optimization(), a.logger), nil
	case "derived":
		return optimizer.NewDerivedCategorizer(f, a.logger), nil
	default:
		return nil, fmt.Errorf("unknown categorizer %q (want direct or derived)", name)
	}
}

func printResult(cmd *cobra.Command, result *batch.Result) {
	out := cmd.OutOrStdout()
	printHeading(out, "Batch results")
	for _, e := range result.Entries() {
		line := fmt.Sprintf("%s -> %s", shorten(e.Prompt, 60), e.Outcome)
		if e.Failed() {
			printError(out, line)
		} else {
			printSuccess(out, line)
		}
	}
	failed := result.Len() - result.Succeeded()
	fmt.Fprintf(out, "Processed %d prompts: %d succeeded, %d failed\n", result.Len(), result.Succeeded(), failed)
}
