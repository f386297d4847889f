package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/okian/bainoculars/internal/adapters/storage"
	"github.com/okian/bainoculars/internal/domain/model"
)

var (
	capturesMode   string
	capturesOutput string
)

var capturesCmd = &cobra.Command{
	Use:   "captures",
	Short: "List stored captures, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := LoadConfig(cmd.Context())
		if err != nil {
			return err
		}

		var modes []model.Mode
		if capturesMode != "" {
			m, err := model.ParseMode(capturesMode)
			if err != nil {
				return err
			}
			modes = append(modes, m)
		}

		store, err := storage.NewLocal(cfg.CaptureDir)
		if err != nil {
			return err
		}
		entries, err := store.List(modes...)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if done, err := writeStructured(out, capturesOutput, entries); done {
			return err
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TIME\tMODE\tLABEL\tPATH")
		for _, e := range entries {
			label := e.Label
			if e.Pending {
				label = "(pending)"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Timestamp.Format("2006-01-02 15:04:05"), e.Mode, label, e.Path)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(capturesCmd)
	capturesCmd.Flags().StringVar(&capturesMode, "mode", "", "only list captures of this mode (explore, arcade)")
	capturesCmd.Flags().StringVarP(&capturesOutput, "output", "o", "text", "output format: text, yaml, json")
}
