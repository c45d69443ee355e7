package cli

import (
	"fmt"

	"github.com/draftsync/internal/config"
	"github.com/draftsync/internal/db"
	"github.com/draftsync/internal/service"
	"github.com/spf13/cobra"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "user commands",
}

func init() {
	userCmd.AddCommand(createUserCmd())
}

func createUserCmd() *cobra.Command {
	var username, password, role string

	command := &cobra.Command{
		Use:   "create",
		Short: "Create a user that can log in to the API",
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := db.ParseRole(role)
			if err != nil {
				return err
			}

			cfg := config.Load()
			gdb, err := db.Init(cfg.DatabasePath, db.Options{Silent: true})
			if err != nil {
				return err
			}

			user, err := service.NewUserService(gdb).Create(username, password, parsed)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "用户 %s 创建成功 (role: %s)\n", user.Username, user.Role)
			return nil
		},
	}

	command.Flags().StringVarP(&username, "username", "u", "", "login name")
	command.Flags().StringVarP(&password, "password", "p", "", "login password")
	command.Flags().StringVarP(&role, "role", "r", string(db.RoleAuthor), "administrator, editor, author or contributor")
	_ = command.MarkFlagRequired("username")
	_ = command.MarkFlagRequired("password")

	return command
}
