package main

import (
	"fmt"
	"os"

	"github.com/lindenlab/go-llsd"
	"github.com/spf13/cobra"
)

func newEncodeCmd() *cobra.Command {
	var from, to, in string
	var pretty bool

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Convert an LLSD document from one wire form to another",
		RunE: func(cmd *cobra.Command, args []string) error {
			if to == "" {
				return fmt.Errorf("--to is required (binary, xml, or notation)")
			}

			data, err := readInput(in)
			if err != nil {
				return fmt.Errorf("reading input: %w", err)
			}

			v, err := decodeWith(data, from)
			if err != nil {
				return fmt.Errorf("decoding input: %w", err)
			}
			llsd.Log.Debugf("decoded %s value, re-encoding as %s", v.Kind(), to)

			out, err := llsd.Format(v, to, llsd.EncodeOptions{Pretty: pretty})
			if err != nil {
				return fmt.Errorf("encoding output: %w", err)
			}
			_, err = os.Stdout.Write(out)
			return err
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "source wire form: binary, xml, or notation (sniffed if omitted)")
	cmd.Flags().StringVar(&to, "to", "", "target wire form: binary, xml, or notation")
	cmd.Flags().StringVar(&in, "in", "", "input file (default: stdin)")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "indent XML output")
	return cmd
}

// decodeWith parses data with the named codec, or sniffs the wire form
// when from is empty.
func decodeWith(data []byte, from string) (llsd.Value, error) {
	opts := llsd.DecodeOptions{}
	switch from {
	case "":
		return llsd.Parse(data, opts)
	case "binary":
		return llsd.ParseBinary(data, opts)
	case "xml":
		return llsd.ParseXML(data, opts)
	case "notation":
		return llsd.ParseNotation(data, opts)
	default:
		return llsd.Value{}, fmt.Errorf("unrecognized wire form %q", from)
	}
}
