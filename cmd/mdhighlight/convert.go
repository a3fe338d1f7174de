package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/mdhighlight/internal/parser"
)

var convertCmd = &cobra.Command{
	Use:   "convert <file>",
	Short: "Convert a document to markdown",
	Long: `Convert turns PDF, DOCX, HTML, CSV, plain text, or markdown into the
markdown form the highlight pipeline consumes. Output goes to stdout or
to --out.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		srcPath := args[0]

		fallback, _ := cmd.Flags().GetBool("pdftotext-fallback")
		p, err := parser.ForFile(srcPath, parser.Options{PDFFallbackPdftotext: fallback})
		if err != nil {
			return err
		}

		f, err := os.Open(srcPath)
		if err != nil {
			return fmt.Errorf("open %s: %w", srcPath, err)
		}
		defer f.Close()

		md, err := p.ToMarkdown(f, srcPath)
		if err != nil {
			return fmt.Errorf("convert %s: %w", srcPath, err)
		}
		if !strings.HasSuffix(md, "\n") {
			md += "\n"
		}

		if out, _ := cmd.Flags().GetString("out"); out != "" {
			return os.WriteFile(out, []byte(md), 0o644)
		}
		_, err = os.Stdout.WriteString(md)
		return err
	},
}

func init() {
	convertCmd.Flags().String("out", "", "output path (default: stdout)")
	convertCmd.Flags().Bool("pdftotext-fallback", true, "fall back to the pdftotext binary when PDF extraction fails")

	rootCmd.AddCommand(convertCmd)
}
