package cmd

import (
	"fmt"
	"os"

	"github.com/pydist/pydist/pkg/auth"
	"github.com/pydist/pydist/pkg/db"
	"github.com/spf13/cobra"
)

// useraddCmd represents the useradd command
var useraddCmd = &cobra.Command{
	Use:   "useradd",
	Short: "Create a user that can own and upload packages",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		username, _ := cmd.Flags().GetString("username")
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")

		ctx := cmd.Context()
		database := db.BuildDatabaseConnection(ctx, cfg.GetDatabaseParams())
		defer database.Close()

		authService := auth.NewDBAuthService(database)
		user, err := authService.CreateUser(ctx, username, email, password)
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Failed to create user: %s\n", err)
			os.Exit(1)
		}
		fmt.Printf("user created: %s (id %d)\n", user.Username, user.ID)
	},
}

//nolint:gochecknoinits
func init() {
	rootCmd.AddCommand(useraddCmd)
	useraddCmd.Flags().String("username", "", "Unique username, used as the index owner name")
	useraddCmd.Flags().String("email", "", "User email")
	useraddCmd.Flags().String("password", "", "Password used for HTTP basic auth")
	_ = useraddCmd.MarkFlagRequired("username")
	_ = useraddCmd.MarkFlagRequired("password")
}
