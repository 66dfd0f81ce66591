package cmd

import (
	"github.com/spf13/cobra"

	"github.com/hotpath-dev/hotpath/internal/controller"
)

// listCmd represents the list command.
var listCmd = newListCmd()

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [file.py]",
		Short: "Profile the script and list its hotspots without translating",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(verboseFlag)
			defer func() { _ = log.Sync() }()

			ui := controller.NewUI(cmd, !plainFlag && controller.IsTTY(cmd.OutOrStdout()))
			if err := ui.Start(); err != nil {
				return err
			}
			defer ui.Close()

			wf := newWorkflow(log, ui)
			opts := buildRunOptions(args)
			records, err := wf.ListHotspots(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return ui.DisplayHotspots(records)
		},
	}
	cmd.Flags().StringVarP(&fileFlag, "file", "f", "", "python source file to profile")
	cmd.Flags().BoolVar(&snippetFlag, "snippet", false, "read the source from stdin")

	return cmd
}

func init() {
	rootCmd.AddCommand(listCmd)
}
