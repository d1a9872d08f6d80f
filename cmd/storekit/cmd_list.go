package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gobeaver/storekit"
)

var (
	listMaxItemsFlag int
	listFilesOnly    bool
	listDirsOnly     bool
	listFlatFlag     bool
)

// storekit ls <path>
var lsCmd = &cobra.Command{
	Use:   "ls <path>",
	Short: "List the names directly under a path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		m, err := openManager(ctx, args[0])
		if err != nil {
			return err
		}
		defer m.Close()

		listing, err := m.LS(ctx, args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, d := range listing.Dirs {
			fmt.Fprintln(out, d+"/")
		}
		for _, f := range listing.Files {
			fmt.Fprintln(out, f)
		}
		return nil
	},
}

// storekit list <path>
var listCmd = &cobra.Command{
	Use:   "list <path>",
	Short: "List entries under a path with their sizes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		m, err := openManager(ctx, args[0])
		if err != nil {
			return err
		}
		defer m.Close()

		var opts []storekit.Option
		if listMaxItemsFlag > 0 {
			opts = append(opts, storekit.WithMaxItems(listMaxItemsFlag))
		}
		if listFilesOnly {
			opts = append(opts, storekit.WithoutDirs())
		}
		if listDirsOnly {
			opts = append(opts, storekit.WithoutFiles())
		}
		if listFlatFlag {
			opts = append(opts, storekit.WithDelimiter(""))
		}

		result, err := m.List(ctx, args[0], opts...)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, d := range result.Dirs {
			fmt.Fprintf(out, "%12s  %s/\n", "DIR", d)
		}
		for _, f := range result.Files {
			fmt.Fprintf(out, "%12d  %s\n", f.Size, f.Name)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().IntVarP(&listMaxItemsFlag, "max-items", "n", 0, "Stop after this many entries (0 lists everything)")
	listCmd.Flags().BoolVar(&listFilesOnly, "files", false, "List files only")
	listCmd.Flags().BoolVar(&listDirsOnly, "dirs", false, "List directories only")
	listCmd.Flags().BoolVar(&listFlatFlag, "flat", false, "List every key under the prefix without grouping (object stores)")
}
