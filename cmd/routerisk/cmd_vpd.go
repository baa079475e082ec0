package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"freshlogic/internal/environment"
)

func newVPDCmd() *cobra.Command {
	var temp, rh float64
	cmd := &cobra.Command{
		Use:   "vpd",
		Short: "Compute vapor pressure deficit for a reading",
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := environment.ComputeVPD(temp, rh)
			if !environment.ValidVPD(v) {
				return fmt.Errorf("invalid reading: temperature %v°C, humidity %v%%", temp, rh)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "VPD: %.4f kPa\n", v)
			return nil
		},
	}
	f := cmd.Flags()
	f.Float64Var(&temp, "temp", 0, "Air temperature in °C (required)")
	f.Float64Var(&rh, "rh", 0, "Relative humidity in percent (required)")
	_ = cmd.MarkFlagRequired("temp")
	_ = cmd.MarkFlagRequired("rh")
	return cmd
}
