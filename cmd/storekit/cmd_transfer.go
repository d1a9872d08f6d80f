package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gobeaver/storekit"
)

var (
	overwriteFlag bool
	basenameFlag  bool
	includeFlag   string
	depthFlag     int
)

// transferOptions turns the shared transfer flags into store options.
func transferOptions() ([]storekit.Option, error) {
	opts := []storekit.Option{
		storekit.WithOverwrite(overwriteFlag),
		storekit.WithBasename(basenameFlag),
	}
	var selectors []storekit.Selector
	if includeFlag != "" {
		s, err := storekit.Glob(includeFlag)
		if err != nil {
			return nil, err
		}
		selectors = append(selectors, s)
	}
	if depthFlag > 0 {
		selectors = append(selectors, storekit.Depth(depthFlag))
	}
	if len(selectors) > 0 {
		opts = append(opts, storekit.WithSelector(storekit.And(selectors...)))
	}
	return opts, nil
}

// storekit upload <local> <remote>
var uploadCmd = &cobra.Command{
	Use:   "upload <local> <remote>",
	Short: "Upload a local file or directory",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		local, remote := args[0], args[1]
		info, err := os.Stat(local)
		if err != nil {
			return err
		}
		opts, err := transferOptions()
		if err != nil {
			return err
		}

		m, err := openManager(ctx, remote)
		if err != nil {
			return err
		}
		defer m.Close()

		if info.IsDir() {
			err = m.UploadDir(ctx, local, remote, opts...)
		} else {
			err = m.UploadFile(ctx, local, remote, opts...)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "uploaded %s to %s\n", local, remote)
		return nil
	},
}

var downloadRecursiveFlag bool

// storekit download <remote> [local]
var downloadCmd = &cobra.Command{
	Use:   "download <remote> [local]",
	Short: "Download a remote file, or a directory with --recursive",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		remote, local := args[0], ""
		if len(args) == 2 {
			local = args[1]
		}
		opts, err := transferOptions()
		if err != nil {
			return err
		}

		m, err := openManager(ctx, remote)
		if err != nil {
			return err
		}
		defer m.Close()

		if downloadRecursiveFlag {
			err = m.DownloadDir(ctx, remote, local, opts...)
		} else {
			err = m.DownloadFile(ctx, remote, local, opts...)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "downloaded %s\n", remote)
		return nil
	},
}

// storekit rm <path>
var rmCmd = &cobra.Command{
	Use:   "rm <path>",
	Short: "Delete a file or everything under a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		m, err := openManager(ctx, args[0])
		if err != nil {
			return err
		}
		defer m.Close()

		return m.Delete(ctx, args[0])
	},
}

func init() {
	for _, c := range []*cobra.Command{uploadCmd, downloadCmd} {
		c.Flags().BoolVarP(&overwriteFlag, "overwrite", "f", false, "Replace existing destination files")
		c.Flags().BoolVar(&basenameFlag, "basename", false, "Place the source under the destination by its base name")
		c.Flags().StringVarP(&includeFlag, "include", "i", "", "Only transfer files matching this glob, e.g. '**/*.csv'")
		c.Flags().IntVar(&depthFlag, "depth", 0, "Only transfer files at most this many levels deep (0 is unlimited)")
	}
	downloadCmd.Flags().BoolVarP(&downloadRecursiveFlag, "recursive", "r", false, "Download the whole tree under the path")
}
