package cmd

import (
	"github.com/spf13/cobra"

	cliapi "parcel-tracking/internal/cli"
)

var trackCmd = &cobra.Command{
	Use:   "track <tracking-number>",
	Short: "Look up a tracking number",
	Long: `Look up a tracking number. The carrier is detected from the number's
shape; pass --carrier to skip detection when the shape is ambiguous.`,
	Args: cobra.ExactArgs(1),
	RunE: runTrack,
}

var (
	trackCarrier  string
	trackRefresh  bool
	trackFallback bool
)

func init() {
	rootCmd.AddCommand(trackCmd)

	trackCmd.Flags().StringVarP(&trackCarrier, "carrier", "c", "", "Carrier ID (skips detection)")
	trackCmd.Flags().BoolVar(&trackRefresh, "refresh", false, "Force refresh, bypassing the cache")
	trackCmd.Flags().BoolVar(&trackFallback, "fallback", false, "Go straight to the aggregator API")
}

func runTrack(cmd *cobra.Command, args []string) error {
	config, formatter, client, err := initializeClient()
	if err != nil {
		return err
	}

	var spinner *cliapi.ProgressSpinner
	if !config.Quiet {
		spinnerText := "Looking up tracking data"
		if trackRefresh {
			spinnerText = "Force refreshing tracking data (bypassing cache)"
		}
		spinner = cliapi.NewProgressSpinner(spinnerText, config.NoColor)
		spinner.Start()
	}

	result, err := client.Track(&cliapi.TrackRequest{
		TrackingNumber: args[0],
		Carrier:        trackCarrier,
		ForceRefresh:   trackRefresh,
		UseFallback:    trackFallback,
	})

	if spinner != nil {
		spinner.Stop()
	}

	if err != nil {
		formatter.PrintError(err)
		return err
	}

	return formatter.PrintTrackResult(result)
}
