package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/metcalfc/leaf/internal/config"
	"github.com/metcalfc/leaf/internal/progress"
)

func newRecentCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "recent",
		Short: "List documents with saved progress.",
		Example: `
leaf recent
leaf recent --data-dir ~/books/.leaf
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			db, err := progress.Load(filepath.Join(cfg.DataDir, progress.FileName))
			if err != nil {
				return err
			}
			printRecent(cmd.OutOrStdout(), db.Rows())
			return nil
		},
	}
}

// printRecent renders rows as a table. Pages are shown one-based.
func printRecent(w io.Writer, rows []progress.Row) {
	if len(rows) == 0 {
		f := color.New(color.Faint, color.Italic)
		_, _ = f.Fprintln(w, "no documents yet")
		return
	}

	bold := color.New(color.Bold)
	faint := color.New(color.Faint)

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 80
	tbl.AddRow(bold.Sprint("Page"), bold.Sprint("Document"), bold.Sprint("Path"))
	for _, r := range rows {
		tbl.AddRow(strconv.Itoa(r.CurrentPage+1), r.Filename, faint.Sprint(r.File))
	}
	tbl.RightAlign(0)

	_, _ = fmt.Fprintln(w, tbl)
}
