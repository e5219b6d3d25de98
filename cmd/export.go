package main

import (
	"fmt"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/hoopline/statline-cli/internal/model"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export season rankings to an XLSX workbook",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("export"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		totals, err := st.SeasonTotals(ctx)
		if err != nil {
			return eris.Wrap(err, "load season totals")
		}
		if len(totals) == 0 {
			return eris.New("no season totals to export; run the cumulative_stats pipeline first")
		}

		if err := writeRankingsXLSX(exportOut, totals); err != nil {
			return err
		}

		zap.L().Info("rankings exported",
			zap.String("file", exportOut),
			zap.Int("players", len(totals)),
		)
		return nil
	},
}

// writeRankingsXLSX writes one row per player, ordered by current rank.
func writeRankingsXLSX(path string, totals []model.SeasonTotal) error {
	sort.Slice(totals, func(i, j int) bool {
		return totals[i].CurrentRank < totals[j].CurrentRank
	})

	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Rankings")
	if err != nil {
		return eris.Wrap(err, "xlsx: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{
		"Rank", "Change", "Player", "Team", "GP", "FPTS",
		"PTS", "REB", "AST", "STL", "BLK", "TOV", "FG3M", "Own%", "Last Played",
	} {
		header.AddCell().SetString(h)
	}

	for _, t := range totals {
		row := sheet.AddRow()
		row.AddCell().SetInt(t.CurrentRank)
		row.AddCell().SetString(formatRankChange(t))
		row.AddCell().SetString(t.Name)
		row.AddCell().SetString(t.Team)
		row.AddCell().SetInt(t.GamesPlayed)
		row.AddCell().SetInt(t.FantasyPoints)
		row.AddCell().SetInt(t.Stats.Pts)
		row.AddCell().SetInt(t.Stats.Reb)
		row.AddCell().SetInt(t.Stats.Ast)
		row.AddCell().SetInt(t.Stats.Stl)
		row.AddCell().SetInt(t.Stats.Blk)
		row.AddCell().SetInt(t.Stats.Tov)
		row.AddCell().SetInt(t.Stats.Fg3m)
		row.AddCell().SetFloat(t.OwnershipPct)
		row.AddCell().SetString(t.LastPlayed.Format("2006-01-02"))
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "xlsx: save %s", path)
	}
	return nil
}

// formatRankChange renders rank movement as +N, -N, or - for no movement.
func formatRankChange(t model.SeasonTotal) string {
	switch change := t.RankChange(); {
	case change > 0:
		return fmt.Sprintf("+%d", change)
	case change < 0:
		return fmt.Sprintf("%d", change)
	default:
		return "-"
	}
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "rankings.xlsx", "output file path")
	rootCmd.AddCommand(exportCmd)
}
