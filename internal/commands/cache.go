package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bookgrep-dev/bookgrep/internal/cache"
)

func newCacheCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the sidecar cache",
	}
	cmd.AddCommand(newCacheBuildCommand(opts))
	cmd.AddCommand(newCacheStatusCommand(opts))
	cmd.AddCommand(newCacheDropCommand(opts))
	return cmd
}

func (o *globalOptions) cacheManager() *cache.Manager {
	path := o.cfg.CachePath
	if path == "" {
		path = cache.DefaultPath(o.book)
	}
	return cache.NewManager(path, o.book)
}

func newCacheBuildCommand(opts *globalOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build or rebuild the cache from the book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := opts.openBook()
			if err != nil {
				return err
			}
			defer b.Close()

			m := opts.cacheManager()
			n, err := m.Build(b, force)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cache built: %d splits\n", n)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "rebuild even if the cache exists")
	return cmd
}

func newCacheStatusCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show cache status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := opts.cacheManager().Status()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Cache path: %s\n", st.Path)
			fmt.Fprintf(out, "Cache exists: %t\n", st.Exists)
			if st.Exists {
				fmt.Fprintf(out, "Cache size: %d bytes\n", st.SizeBytes)
				fmt.Fprintf(out, "Last modified: %s\n", st.Modified.Format("2006-01-02 15:04:05"))
				fmt.Fprintf(out, "Split count: %d\n", st.SplitCount)
				fmt.Fprintf(out, "Schema version: %d\n", st.SchemaVersion)
				fmt.Fprintf(out, "Source book: %s\n", st.SourceBook)
				fmt.Fprintf(out, "Build time: %s\n", st.BuildTime)
			}
			return nil
		},
	}
}

func newCacheDropCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "drop",
		Short: "Delete the cache file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dropped, err := opts.cacheManager().Drop()
			if err != nil {
				return err
			}
			if dropped {
				fmt.Fprintln(cmd.OutOrStdout(), "Cache dropped.")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "No cache to drop.")
			}
			return nil
		},
	}
}
