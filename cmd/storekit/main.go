// Command storekit lists and copies data between local paths and any
// registered storage backend.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gobeaver/storekit"

	// Drivers register themselves with storekit in init.
	_ "github.com/gobeaver/storekit/driver/azure"
	_ "github.com/gobeaver/storekit/driver/gcs"
	_ "github.com/gobeaver/storekit/driver/local"
	_ "github.com/gobeaver/storekit/driver/memory"
	_ "github.com/gobeaver/storekit/driver/s3"
	_ "github.com/gobeaver/storekit/driver/sftp"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	storeTypeFlag string
	datasetFlag   string
	prefixFlag    string
	verboseFlag   bool
	readOnlyFlag  bool
)

var rootCmd = &cobra.Command{
	Use:           "storekit",
	Short:         "Copy and list data across storage backends",
	Long:          "storekit addresses local directories, S3, GCS, Azure Blob and SFTP with one URL syntax, e.g. s3://bucket/key or sftp://host/path.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&storeTypeFlag, "type", "t", "", "Store type (local, s3, gcs, azure, sftp, memory); inferred from the path when empty")
	pf.StringVarP(&datasetFlag, "dataset", "d", "", "Use the mounted credentials of this dataset; paths are relative to its bucket")
	pf.StringVar(&prefixFlag, "env-prefix", "BEAVER_", "Prefix of the STOREKIT_* environment variables")
	pf.BoolVarP(&verboseFlag, "verbose", "v", false, "Log debug output to stderr")
	pf.BoolVar(&readOnlyFlag, "read-only", false, "Refuse uploads and deletes")

	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(envCmd)
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verboseFlag {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// signalContext is cancelled on SIGINT and SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// openManager builds the manager serving path. The store type comes from
// --dataset, then --type, then the scheme of path.
func openManager(ctx context.Context, path string) (*storekit.StoreManager, error) {
	logger := newLogger()
	cfg, err := storekit.LoadConfig(prefixFlag)
	if err != nil {
		return nil, storekit.ConfigError("config", prefixFlag, err)
	}

	var m *storekit.StoreManager
	if datasetFlag != "" {
		m, err = storekit.ManagerForDataset(cfg, datasetFlag, storekit.WithManagerLogger(logger))
	} else {
		storeType := storekit.StoreTypeFromPath(path)
		if storeTypeFlag != "" {
			if storeType, err = storekit.ParseStoreType(storeTypeFlag); err != nil {
				return nil, err
			}
		}
		m, err = storekit.ManagerForType(storeType, nil,
			[]storekit.StoreOption{storekit.WithConfig(cfg), storekit.WithLogger(logger)},
			storekit.WithManagerLogger(logger))
	}
	if err != nil {
		return nil, err
	}
	if readOnlyFlag {
		m, err = storekit.NewManager(storekit.NewReadOnlyStore(m.Store()),
			storekit.WithBasePath(m.BasePath()), storekit.WithManagerLogger(logger))
		if err != nil {
			return nil, err
		}
	}

	if err := m.Connect(ctx); err != nil {
		m.Close()
		return nil, err
	}
	return m, nil
}
