package main

import (
	"github.com/spf13/cobra"
)

func newOptimizeCmd(a *app) *cobra.Command {
	var (
		inputFile  string
		outputFile string
		asYAML     bool
	)

	cmd := &cobra.Command{
		Use:   "optimize [prompt]",
		Short: "Optimize a single prompt",
		Example: `  promptstorm optimize "Write a function that calculates fibonacci numbers"
  promptstorm optimize --input-file prompt.txt --yaml --output-file prompt.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt, err := readPrompt(args, inputFile)
			if err != nil {
				return err
			}
			client, err := a.client()
			if err != nil {
				return err
			}
			opt, err := a.newOptimizer(client)
			if err != nil {
				return err
			}

			optimized, err := opt.Optimize(cmd.Context(), prompt)
			if err != nil {
				return err
			}
			if !asYAML {
				return writeOutput(cmd, optimized, outputFile, "Optimized prompt")
			}

			f, err := a.newFormatter(client)
			if err != nil {
				return err
			}
			doc, err := f.Format(cmd.Context(), optimized)
			if err != nil {
				return err
			}
			return writeOutput(cmd, doc, outputFile, "YAML document")
		},
	}

	cmd.Flags().StringVarP(&inputFile, "input-file", "i", "", "Read the prompt from a file")
	cmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "Write the result to a file")
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Convert the optimized prompt into a YAML document")
	return cmd
}
