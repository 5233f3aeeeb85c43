package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/trellis-ai/trellis-ai/cmd/service"
)

func main() {
	root := &cobra.Command{
		Use:   "trellis",
		Short: "trellis",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("empty command")
		},
	}

	root.AddCommand(service.NewCommand(), service.NewProcessCommand(), service.NewImportCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
