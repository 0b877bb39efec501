package commands

import (
	"fmt"
	"log/slog"

	"campusdual-backend/internal/session"
	"campusdual-backend/lib/serviceutil"

	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manages the encrypted session file used to fetch pages from the portal.",
}

var (
	sealCookie   *string
	sealHash     *string
	sealUser     *string
	sealPassword *string
)

func init() {
	sealCookie = sealCmd.Flags().String("cookie", "", `The session cookie as json, ex. {"name":"MYSAPSSO2","value":"..."}.`)
	sealHash = sealCmd.Flags().String("hash", "", "The portal's user hash.")
	sealUser = sealCmd.Flags().String("user", "", "The matriculation number.")
	sealPassword = sealCmd.Flags().String("password", "", "The portal password.")
	sealCmd.MarkFlagRequired("cookie")
	sealCmd.MarkFlagRequired("user")

	sessionCmd.AddCommand(sealCmd, openCmd, keygenCmd)
	rootCmd.AddCommand(sessionCmd)
}

var sealCmd = &cobra.Command{
	Use:   "seal --cookie <json> --user <id> [--hash <hash>] [--password <password>]",
	Short: "Encrypts a session and writes it to the configured session file.",
	Run: func(cmd *cobra.Command, args []string) {
		config, err := loadConfig()
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}

		sealed, err := mustSealer().Seal(session.Payload{
			Cookie:   *sealCookie,
			Hash:     *sealHash,
			User:     *sealUser,
			Password: *sealPassword,
		})
		if err != nil {
			serviceutil.Fatal("failed to seal session", err)
		}
		err = session.WriteFile(config.Session.File, sealed)
		if err != nil {
			serviceutil.Fatal("failed to write session", err)
		}
		slog.Info("sealed session", "file", config.Session.File, "user", *sealUser)
	},
}

var openCmd = &cobra.Command{
	Use:   "open",
	Short: "Decrypts the configured session file and prints it, the password is masked.",
	Run: func(cmd *cobra.Command, args []string) {
		config, err := loadConfig()
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}

		sealed, err := session.ReadFile(config.Session.File)
		if err != nil {
			serviceutil.Fatal("failed to read session", err)
		}
		payload, err := mustSealer().Open(sealed)
		if err != nil {
			serviceutil.Fatal("failed to open session", err)
		}
		if payload.Password != "" {
			payload.Password = "********"
		}
		err = writeJson(cmd.OutOrStdout(), payload)
		if err != nil {
			serviceutil.Fatal("failed to write session", err)
		}
	},
}

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: fmt.Sprintf("Generates a random key for %s.", session.KeyEnv),
	Run: func(cmd *cobra.Command, args []string) {
		key, err := session.GenerateKey()
		if err != nil {
			serviceutil.Fatal("failed to generate key", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), key)
	},
}
