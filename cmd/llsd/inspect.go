package main

import (
	"fmt"

	"github.com/lindenlab/go-llsd"
	"github.com/spf13/cobra"
)

func newInspectCmd() *cobra.Command {
	var in string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Report which wire form an input would dispatch to, without fully decoding it",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(in)
			if err != nil {
				return fmt.Errorf("reading input: %w", err)
			}
			format, err := llsd.Sniff(data)
			if err != nil {
				return err
			}
			fmt.Println(format)
			return nil
		},
	}

	cmd.Flags().StringVar(&in, "in", "", "input file (default: stdin)")
	return cmd
}
