package main

import (
	"github.com/spf13/cobra"
)

func newFormatCmd(a *app) *cobra.Command {
	var inputFile, outputFile string

	cmd := &cobra.Command{
		Use:   "format [prompt]",
		Short: "Convert a prompt into a validated YAML document",
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt, err := readPrompt(args, inputFile)
			if err != nil {
				return err
			}
			client, err := a.client()
			if err != nil {
				return err
			}
			f, err := a.newFormatter(client)
			if err != nil {
				return err
			}
			doc, err := f.Format(cmd.Context(), prompt)
			if err != nil {
				return err
			}
			return writeOutput(cmd, doc, outputFile, "YAML document")
		},
	}

	cmd.Flags().StringVarP(&inputFile, "input-file", "i", "", "Read the prompt from a file")
	cmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "Write the document to a file")
	return cmd
}
