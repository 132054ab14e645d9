package commands

import (
	"fmt"
	"os"

	"github.com/raviprakash-14/scrapify/internal/valuation"
	"github.com/spf13/cobra"
)

func readPhoto(path string) (*valuation.Photo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return valuation.NewPhoto(data, "")
}

func dataURICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "datauri <image>",
		Short: "Print an image as a base64 data URI",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			photo, err := readPhoto(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), photo.DataURI())
			return nil
		},
	}
}
