package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCommand creates the todoscope command tree. Invoked without a
// subcommand, todoscope behaves like `todoscope scan`.
func NewRootCommand() *cobra.Command {
	sc := &ScanCommand{}

	root := &cobra.Command{
		Use:   "todoscope [path]",
		Short: "Find TODO annotations and who left them",
		Long: `todoscope lists the TODO annotations of a Git working tree grouped by the
commit that last touched them, then by tag, then by author.

Commands:
  scan      Scan a repository (default)
  validate  Validate a JSON report against the report schema
  mcp       Serve scans to AI agents over the Model Context Protocol
  version   Show version information`,
		Args:          cobra.MaximumNArgs(1),
		RunE:          sc.run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolP(flagVerbose, "v", false, "Debug logging")
	root.PersistentFlags().BoolP(flagQuiet, "q", false, "Only log errors")
	root.MarkFlagsMutuallyExclusive(flagVerbose, flagQuiet)

	sc.registerFlags(root)

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return WithExitCode(ExitUsage, flagError("%v", err))
	})

	root.AddCommand(NewScanCommand())
	root.AddCommand(NewValidateCommand())
	root.AddCommand(NewMCPCommand())
	root.AddCommand(NewVersionCommand())

	return root
}
