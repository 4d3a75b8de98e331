package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/0xlemi/clipr/internal/audio"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio input devices",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		devices, err := audio.ListDevices()
		if err != nil {
			return err
		}
		if len(devices) == 0 {
			fmt.Println("No input devices found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tHOST API\tCHANNELS\tRATE\t")
		for _, d := range devices {
			name := d.Name
			if d.IsDefault {
				name += " (default)"
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%.0f Hz\t\n", name, d.HostAPI, d.InputChannels, d.DefaultSampleRate)
		}
		return w.Flush()
	},
}
