package main

import (
	"fmt"
	"strings"

	"github.com/lindenlab/go-llsd"
	"github.com/spf13/cobra"
)

func newDecodeCmd() *cobra.Command {
	var as, in string

	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Parse an LLSD document and dump its value tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(in)
			if err != nil {
				return fmt.Errorf("reading input: %w", err)
			}

			v, err := decodeWith(data, as)
			if err != nil {
				return fmt.Errorf("decoding input: %w", err)
			}

			var b strings.Builder
			dumpValue(&b, v, 0)
			fmt.Print(b.String())
			return nil
		},
	}

	cmd.Flags().StringVar(&as, "as", "", "wire form to parse as: binary, xml, or notation (sniffed if omitted)")
	cmd.Flags().StringVar(&in, "in", "", "input file (default: stdin)")
	return cmd
}

// dumpValue renders v as an indented Go-syntax-flavored tree for
// debugging. This is a CLI convenience, not a wire form: it traverses an
// already-decoded (and therefore depth-bounded) tree, so plain recursion
// is fine here even though the decoders themselves use explicit stacks.
func dumpValue(b *strings.Builder, v llsd.Value, depth int) {
	pad := strings.Repeat("  ", depth)
	switch v.Kind() {
	case llsd.KindUndef:
		fmt.Fprintf(b, "%sUndef\n", pad)
	case llsd.KindBoolean:
		fmt.Fprintf(b, "%sBoolean(%v)\n", pad, v.BooleanValue())
	case llsd.KindInteger:
		fmt.Fprintf(b, "%sInteger(%d)\n", pad, v.IntegerValue())
	case llsd.KindReal:
		fmt.Fprintf(b, "%sReal(%v)\n", pad, v.RealValue())
	case llsd.KindString:
		fmt.Fprintf(b, "%sString(%q)\n", pad, v.StringValue())
	case llsd.KindUUID:
		fmt.Fprintf(b, "%sUUID(%s)\n", pad, v.UUIDValue())
	case llsd.KindDate:
		fmt.Fprintf(b, "%sDate(%s)\n", pad, v.DateVal().Format())
	case llsd.KindBinary:
		fmt.Fprintf(b, "%sBinary(%d bytes)\n", pad, len(v.BinaryValue()))
	case llsd.KindURI:
		fmt.Fprintf(b, "%sURI(%q)\n", pad, v.URIString())
	case llsd.KindArray:
		fmt.Fprintf(b, "%sArray[%d]{\n", pad, v.Len())
		for _, elem := range v.Elements() {
			dumpValue(b, elem, depth+1)
		}
		fmt.Fprintf(b, "%s}\n", pad)
	case llsd.KindMap:
		fmt.Fprintf(b, "%sMap[%d]{\n", pad, v.Len())
		for _, ent := range v.MapEntries() {
			fmt.Fprintf(b, "%s  %q:\n", pad, ent.Key)
			dumpValue(b, ent.Value, depth+2)
		}
		fmt.Fprintf(b, "%s}\n", pad)
	}
}
