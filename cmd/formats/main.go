// Command formats prints the image formats the converter can decode and warns
// about any required format that has no decoder.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/yuew620/imageConvertFunction/codec"
	"github.com/yuew620/imageConvertFunction/images"
)

func main() {
	asJSON := flag.Bool("json", false, "Print the capability report as JSON")
	flag.Parse()

	report := codec.NewRegistry().Capabilities(images.SupportedFormats)

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	} else {
		fmt.Println("Supported image formats:")
		for _, name := range report.Available {
			fmt.Printf("- %s\n", name)
		}
		for _, name := range report.Missing {
			fmt.Printf("Warning: %s may not be supported\n", name)
		}
	}

	if !report.OK() {
		os.Exit(1)
	}
}
