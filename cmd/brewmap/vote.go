package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/kass/go-geo-dominance/pkg/votestore"
	"github.com/spf13/cobra"
)

var (
	voteUser     string
	voteLat      float64
	voteLon      float64
	voteCategory string
)

var voteCmd = &cobra.Command{
	Use:   "vote",
	Short: "Cast, list and remove votes",
}

var voteCastCmd = &cobra.Command{
	Use:   "cast",
	Short: "Cast or move the vote of a user",
	Long:  `Each user holds one vote. Casting again moves it to the new location and category.`,
	RunE:  withApp(runVoteCast),
}

var voteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored votes",
	RunE:  withApp(runVoteList),
}

var voteDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a vote by id",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(runVoteDelete),
}

var voteClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every vote",
	RunE:  withApp(runVoteClear),
}

func init() {
	voteCastCmd.Flags().StringVarP(&voteUser, "user", "u", "", "User id")
	voteCastCmd.Flags().Float64Var(&voteLat, "lat", 0, "Latitude")
	voteCastCmd.Flags().Float64Var(&voteLon, "lon", 0, "Longitude")
	voteCastCmd.Flags().StringVarP(&voteCategory, "category", "k", "", "Category id")
	for _, name := range []string{"user", "lat", "lon", "category"} {
		_ = voteCastCmd.MarkFlagRequired(name)
	}

	voteCmd.AddCommand(voteCastCmd, voteListCmd, voteDeleteCmd, voteClearCmd)
}

func runVoteCast(ctx context.Context, a *app, _ []string) error {
	vote, err := a.engine.CastVote(ctx, voteUser, voteLat, voteLon, voteCategory)
	if err != nil {
		return err
	}
	newPrinter(nil).success(fmt.Sprintf("Vote %s by %s for %s at %.5f, %.5f", vote.ID, vote.UserID, vote.CategoryID, vote.Lat, vote.Lon))
	return nil
}

func runVoteList(ctx context.Context, a *app, _ []string) error {
	votes, err := a.repo.ListVotes(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSER\tCATEGORY\tLAT\tLON\tCAST")
	for _, v := range votes {
		cast := time.UnixMilli(v.Timestamp).UTC().Format(time.RFC3339)
		fmt.Fprintf(w, "%s\t%s\t%s\t%.5f\t%.5f\t%s\n", v.ID, v.UserID, v.CategoryID, v.Lat, v.Lon, cast)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println(dimStyle.Render(fmt.Sprintf("%d votes", len(votes))))
	return nil
}

func runVoteDelete(ctx context.Context, a *app, args []string) error {
	err := a.repo.DeleteVote(ctx, args[0])
	if errors.Is(err, votestore.ErrNotFound) {
		return fmt.Errorf("no vote with id %q", args[0])
	}
	if err != nil {
		return err
	}
	newPrinter(nil).success("Deleted vote " + args[0])
	return nil
}

func runVoteClear(ctx context.Context, a *app, _ []string) error {
	if err := a.repo.ClearVotes(ctx); err != nil {
		return err
	}
	newPrinter(nil).success("All votes deleted")
	return nil
}
