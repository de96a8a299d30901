package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tinoosan/chrono/internal/window"
)

var windowCourse string

var windowCmd = &cobra.Command{
	Use:   "window",
	Short: "Print the window a course key selects, without loading any data",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := window.Compute(windowCourse)
		out := struct {
			Course      string `json:"course"`
			Fingerprint uint64 `json:"fingerprint"`
			Offset      int    `json:"offset"`
			Size        int    `json:"nb_participants"`
			End         int    `json:"end_exclusive"`
		}{windowCourse, window.Fingerprint(windowCourse), w.Offset, w.Size, w.End()}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	windowCmd.Flags().StringVar(&windowCourse, "course", window.DefaultKey, "Course key")
	rootCmd.AddCommand(windowCmd)
}
