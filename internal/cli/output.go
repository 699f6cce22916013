package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"parcel-tracking/internal/carriers"
	"parcel-tracking/internal/handlers"
	"parcel-tracking/internal/parser"
)

var statusStyles = map[carriers.TrackingStatus]lipgloss.Style{
	carriers.StatusDelivered:      lipgloss.NewStyle().Foreground(lipgloss.Color("10")), // green
	carriers.StatusOutForDelivery: lipgloss.NewStyle().Foreground(lipgloss.Color("11")), // yellow
	carriers.StatusInTransit:      lipgloss.NewStyle().Foreground(lipgloss.Color("12")), // blue
	carriers.StatusInfoReceived:   lipgloss.NewStyle().Foreground(lipgloss.Color("14")), // cyan
	carriers.StatusException:      lipgloss.NewStyle().Foreground(lipgloss.Color("9")),  // red
	carriers.StatusFailed:         lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	carriers.StatusExpired:        lipgloss.NewStyle().Foreground(lipgloss.Color("8")), // gray
	carriers.StatusPending:        lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	carriers.StatusUnknown:        lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
}

// OutputFormatter handles different output formats
type OutputFormatter struct {
	format  string
	quiet   bool
	noColor bool
}

// NewOutputFormatter creates a new output formatter
func NewOutputFormatter(format string, quiet bool) *OutputFormatter {
	return NewOutputFormatterWithColor(format, quiet, false)
}

// NewOutputFormatterWithColor creates a formatter with explicit color control
func NewOutputFormatterWithColor(format string, quiet, noColor bool) *OutputFormatter {
	return &OutputFormatter{
		format:  format,
		quiet:   quiet,
		noColor: noColor,
	}
}

// colorEnabled reports whether status coloring should be applied. Respects
// the --no-color flag, the NO_COLOR convention, and non-terminal stdout.
func (f *OutputFormatter) colorEnabled() bool {
	if f.noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

func (f *OutputFormatter) renderStatus(status carriers.TrackingStatus) string {
	if !f.colorEnabled() {
		return string(status)
	}
	style, ok := statusStyles[status]
	if !ok {
		return string(status)
	}
	return style.Render(string(status))
}

// PrintTrackResult prints a tracking lookup result
func (f *OutputFormatter) PrintTrackResult(result *handlers.TrackResponse) error {
	if f.quiet {
		fmt.Println(result.Status)
		return nil
	}

	switch f.format {
	case "json":
		return json.NewEncoder(os.Stdout).Encode(result)
	case "table":
		return f.printTrackResultTable(result)
	default:
		return fmt.Errorf("unsupported format: %s", f.format)
	}
}

// printTrackResultTable prints a tracking result in table format
func (f *OutputFormatter) printTrackResultTable(result *handlers.TrackResponse) error {
	fmt.Printf("Tracking Number: %s\n", result.TrackingNumber)
	fmt.Printf("Carrier: %s\n", result.CarrierName)
	fmt.Printf("Status: %s\n", f.renderStatus(result.Status))
	if result.StatusMessage != "" {
		fmt.Printf("Latest: %s\n", result.StatusMessage)
	}
	if result.ETA != nil {
		fmt.Printf("Estimated Delivery: %s\n", result.ETA.Format("2006-01-02"))
	}
	if result.DeliveredAt != nil {
		fmt.Printf("Delivered: %s\n", result.DeliveredAt.Format("2006-01-02 15:04"))
	}
	if result.Origin != nil {
		fmt.Printf("Origin: %s\n", *result.Origin)
	}
	if result.Destination != nil {
		fmt.Printf("Destination: %s\n", *result.Destination)
	}
	if result.CurrentLocation != nil {
		fmt.Printf("Current Location: %s\n", *result.CurrentLocation)
	}
	fmt.Printf("Source: %s", result.Source)
	if result.Cached {
		fmt.Printf(" (cached)")
	}
	fmt.Println()

	if !result.Success {
		if result.Error != "" {
			fmt.Printf("Error: %s\n", result.Error)
		}
		if result.Message != "" {
			fmt.Printf("Note: %s\n", result.Message)
		}
		if result.FallbackError != "" {
			fmt.Printf("Fallback: %s\n", result.FallbackError)
		}
		return nil
	}

	if len(result.Events) == 0 {
		fmt.Println("\nNo tracking events found.")
		return nil
	}

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "TIMESTAMP\tLOCATION\tSTATUS\tDESCRIPTION")
	for _, event := range result.Events {
		location := ""
		if event.Location != nil {
			location = *event.Location
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			event.Timestamp.Format("2006-01-02 15:04"),
			truncate(location, 25),
			event.Status,
			truncate(event.Description, 45))
	}

	return nil
}

// PrintCarriers prints the carrier catalog
func (f *OutputFormatter) PrintCarriers(infos []handlers.CarrierInfo) error {
	if f.quiet {
		for _, info := range infos {
			fmt.Println(info.ID)
		}
		return nil
	}

	switch f.format {
	case "json":
		return json.NewEncoder(os.Stdout).Encode(infos)
	case "table":
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		defer w.Flush()

		fmt.Fprintln(w, "ID\tNAME\tTRACKING URL")
		for _, info := range infos {
			fmt.Fprintf(w, "%s\t%s\t%s\n", info.ID, info.Name, info.TrackingURL)
		}
		return nil
	default:
		return fmt.Errorf("unsupported format: %s", f.format)
	}
}

// PrintExtraction prints parsed tracking numbers
func (f *OutputFormatter) PrintExtraction(extraction *parser.Extraction) error {
	if f.quiet {
		for _, candidate := range extraction.TrackingNumbers {
			fmt.Println(candidate.Number)
		}
		return nil
	}

	switch f.format {
	case "json":
		return json.NewEncoder(os.Stdout).Encode(extraction)
	case "table":
		if len(extraction.TrackingNumbers) == 0 {
			fmt.Println("No tracking numbers found.")
		} else {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NUMBER\tCARRIER")
			for _, candidate := range extraction.TrackingNumbers {
				fmt.Fprintf(w, "%s\t%s\n", candidate.Number, strings.ToUpper(candidate.Carrier))
			}
			w.Flush()
		}

		if extraction.MerchantName != nil {
			fmt.Printf("Merchant: %s\n", *extraction.MerchantName)
		}
		if extraction.OrderNumber != nil {
			fmt.Printf("Order: %s\n", *extraction.OrderNumber)
		}
		if extraction.ItemDescription != nil {
			fmt.Printf("Item: %s\n", *extraction.ItemDescription)
		}
		return nil
	default:
		return fmt.Errorf("unsupported format: %s", f.format)
	}
}

// PrintSuccess prints a success message
func (f *OutputFormatter) PrintSuccess(message string) {
	if !f.quiet {
		fmt.Printf("✓ %s\n", message)
	}
}

// PrintError prints an error message
func (f *OutputFormatter) PrintError(err error) {
	if !f.quiet {
		fmt.Fprintf(os.Stderr, "✗ Error: %v\n", err)
	}
}

// PrintInfo prints an informational message
func (f *OutputFormatter) PrintInfo(message string) {
	if !f.quiet {
		fmt.Printf("ℹ %s\n", message)
	}
}

// truncate truncates a string to the specified length
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
