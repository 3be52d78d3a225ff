package cmd

import (
	"fmt"

	internalApp "github.com/haierkeys/post-revisions-service/internal/app"
	pkgapp "github.com/haierkeys/post-revisions-service/pkg/app"

	"github.com/spf13/cobra"
)

type tokenFlags struct {
	config   string
	uid      int64
	nickname string
}

// token signs a viewer token with security.auth-token-key, for testing the API by hand
func init() {
	env := new(tokenFlags)

	var tokenCommand = &cobra.Command{
		Use:   "token -u uid [-n nickname] [-c config_file]",
		Short: "Sign a user token. // 签发用户 Token。",
		RunE: func(cmd *cobra.Command, args []string) error {
			if env.uid <= 0 {
				return fmt.Errorf("uid must be a positive integer")
			}
			runEnv := &runFlags{config: env.config}
			if err := resolveConfig(runEnv); err != nil {
				return err
			}
			cfg, _, err := internalApp.LoadConfig(runEnv.config)
			if err != nil {
				return err
			}

			tokens := pkgapp.NewTokenManager(pkgapp.TokenConfig{
				SecretKey: cfg.Security.AuthTokenKey,
				Expiry:    cfg.GetTokenExpiry(),
			})
			tok, err := tokens.Generate(env.uid, env.nickname, "")
			if err != nil {
				return err
			}
			fmt.Println(tok)
			return nil
		},
	}

	rootCmd.AddCommand(tokenCommand)
	fs := tokenCommand.Flags()
	fs.StringVarP(&env.config, "config", "c", "", "config file")
	fs.Int64VarP(&env.uid, "uid", "u", 0, "user id")
	fs.StringVarP(&env.nickname, "nickname", "n", "", "nickname")
}
