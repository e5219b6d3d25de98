package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hoopline/statline-cli/internal/model"
)

var teamCmd = &cobra.Command{
	Use:   "team",
	Short: "Manage teams watched by the lineup alerts pipeline",
}

var (
	teamAddUser   string
	teamAddLeague string
)

var teamAddCmd = &cobra.Command{
	Use:   "add <team-id> <team-name>",
	Short: "Register a fantasy team for lineup alerts",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		leagueID := cfg.FantasyAPI.LeagueID
		if teamAddLeague != "" {
			leagueID = teamAddLeague
		}
		league, err := strconv.ParseInt(leagueID, 10, 64)
		if err != nil {
			return eris.Wrapf(err, "parse league id %q", leagueID)
		}

		team := model.SavedTeam{
			TeamID:   args[0],
			TeamName: args[1],
			UserID:   teamAddUser,
			LeagueID: league,
		}
		if err := st.SaveTeam(ctx, team); err != nil {
			return eris.Wrap(err, "save team")
		}

		zap.L().Info("team registered for lineup alerts",
			zap.String("team_id", team.TeamID),
			zap.String("team_name", team.TeamName),
		)
		return nil
	},
}

var teamListCmd = &cobra.Command{
	Use:   "list",
	Short: "List teams watched for lineup alerts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		teams, err := st.SavedTeams(ctx)
		if err != nil {
			return eris.Wrap(err, "list teams")
		}
		if len(teams) == 0 {
			fmt.Fprintln(os.Stderr, "No teams registered.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "TEAM_ID\tNAME\tLEAGUE\tUSER")
		for _, t := range teams {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", t.TeamID, t.TeamName, t.LeagueID, t.UserID)
		}
		return w.Flush()
	},
}

func init() {
	teamAddCmd.Flags().StringVar(&teamAddUser, "user", "", "owning user id")
	teamAddCmd.Flags().StringVar(&teamAddLeague, "league", "", "league id (default from config)")

	teamCmd.AddCommand(teamAddCmd)
	teamCmd.AddCommand(teamListCmd)
	rootCmd.AddCommand(teamCmd)
}
