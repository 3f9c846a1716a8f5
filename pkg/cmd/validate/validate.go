package validate

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stleox/tracuni/pkg/cmd/common"
)

func New(vp *viper.Viper) *cobra.Command {
	validate := &cobra.Command{
		Use:   "validate",
		Short: "Check a rule file and report the rules registered per variant",
		RunE: func(cmd *cobra.Command, args []string) error {
			if vp.GetString("rules-file") == "" {
				return errors.New("no rule file, set --rules-file")
			}
			reg, entries, err := common.NewRegistry(vp)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "VARIANT\tRULES\n")
			for _, v := range reg.Variants() {
				fmt.Fprintf(w, "%s\t%d\n", v, len(reg.Rules(v)))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d rule sets ok\n", vp.GetString("rules-file"), len(entries))
			return nil
		},
	}
	return validate
}
