package cli

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sdejongh/dedupnorris/pkg/models"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, build and runtime information, and the supported content digests.`,
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			if short {
				fmt.Fprintln(w, Version)
				return
			}

			hashes := []string{string(models.HashMD5), string(models.HashSHA256), string(models.HashMurmur3)}
			fmt.Fprintf(w, "dedupnorris %s\n", Version)
			fmt.Fprintf(w, "  Commit:     %s\n", Commit)
			fmt.Fprintf(w, "  Built:      %s\n", BuildDate)
			fmt.Fprintf(w, "  Go version: %s\n", runtime.Version())
			fmt.Fprintf(w, "  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
			fmt.Fprintf(w, "  Digests:    %s\n", strings.Join(hashes, ", "))
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "print only the version number")

	return cmd
}
