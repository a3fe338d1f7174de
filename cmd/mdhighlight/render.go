package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/mdhighlight/internal/parser"
	"github.com/dgallion1/mdhighlight/internal/render"
)

var renderCmd = &cobra.Command{
	Use:   "render <file.md>",
	Short: "Render an annotated markdown file as HTML",
	Long: `Render converts an annotated markdown file into a standalone HTML page
with the highlight stylesheet embedded, so spans show up as colored
highlights in a browser. Output goes to stdout or to --out.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		srcPath := args[0]

		data, err := os.ReadFile(srcPath)
		if err != nil {
			return fmt.Errorf("read %s: %w", srcPath, err)
		}

		title, _ := cmd.Flags().GetString("title")
		if title == "" {
			title = parser.Title(srcPath)
		}

		page, err := render.Page(title, string(data))
		if err != nil {
			return err
		}

		if out, _ := cmd.Flags().GetString("out"); out != "" {
			return os.WriteFile(out, []byte(page), 0o644)
		}
		_, err = os.Stdout.WriteString(page)
		return err
	},
}

func init() {
	renderCmd.Flags().String("out", "", "output path (default: stdout)")
	renderCmd.Flags().String("title", "", "page title (default: derived from filename)")

	rootCmd.AddCommand(renderCmd)
}
