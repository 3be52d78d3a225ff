package cmd

import (
	"fmt"

	"github.com/haierkeys/post-revisions-service/internal/app"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
)

var versionJSON bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version info and exit // 打印版本信息并退出",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !versionJSON {
			fmt.Fprintln(cmd.OutOrStdout(), app.VersionLine())
			return nil
		}
		out, err := sonic.ConfigStd.MarshalIndent(app.BuildInfo(), "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "print as JSON, same shape as GET /api/version")
	rootCmd.AddCommand(versionCmd)
}
