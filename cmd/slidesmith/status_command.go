package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"slidesmith/internal/ipc"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and build status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				status, err := client.Status()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderStatus(status, shouldColorize(out)))
				return nil
			})
		},
	}
}

func newRebuildCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild",
		Short: "Trigger a build now",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Rebuild()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if resp.Accepted {
					fmt.Fprintln(out, "Build started")
					return nil
				}
				return fmt.Errorf("build rejected: %s", resp.Reason)
			})
		},
	}
}

func newPlanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Preview the assembly plan a build would run now",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				plan, err := client.Plan()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				rows := [][2]string{
					{"Slides", fmt.Sprintf("%d", plan.SlideCount)},
					{"Passes", fmt.Sprintf("%d", plan.Repeats)},
					{"Seconds per slide", fmt.Sprintf("%g", plan.PerSlideSeconds)},
					{"Slideshow length", fmt.Sprintf("%gs", plan.SlideshowSeconds)},
				}
				if plan.AppendClip != "" {
					rows = append(rows,
						[2]string{"Trailing clip", plan.AppendClip},
						[2]string{"Clip length", fmt.Sprintf("%gs", plan.AppendSeconds)})
				}
				rows = append(rows, [2]string{"Total length", fmt.Sprintf("%gs", plan.TotalSeconds)})
				if plan.TrackCount > 0 {
					rows = append(rows,
						[2]string{"Music tracks", fmt.Sprintf("%d", plan.TrackCount)},
						[2]string{"Sample track", plan.SampleTrack})
				} else {
					rows = append(rows, [2]string{"Music tracks", "none (silent video)"})
				}
				if plan.OverlayEnabled {
					rows = append(rows, [2]string{"Countdown", fmt.Sprintf("%gs to %gs", plan.OverlayStart, plan.OverlayEnd)})
				}
				fmt.Fprintln(out, planTable(rows))
				if plan.TrackCount > 1 {
					fmt.Fprintln(out, "The music track shown is a sample draw; each build picks its own.")
				}
				return nil
			})
		},
	}
}
