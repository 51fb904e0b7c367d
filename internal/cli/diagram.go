package cli

import (
	"github.com/spf13/cobra"

	"github.com/stateforward/go-command/pkg/plantuml"
)

func newDiagramCmd(_ *options) *cobra.Command {
	return &cobra.Command{
		Use:   "diagram",
		Short: "Print the demo routine as a PlantUML state diagram",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return plantuml.Generate(cmd.OutOrStdout(), newRobot().routine)
		},
	}
}
