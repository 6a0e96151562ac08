package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	authCmd := &cobra.Command{Use: "auth", Short: "Garmin Connect login operations"}

	// login
	var email, password, userID string
	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Start a credential login (may return an MFA challenge)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" || password == "" || userID == "" {
				return fmt.Errorf("--email, --password and --user required")
			}
			payload := map[string]interface{}{
				"email":    email,
				"password": password,
				"user_id":  userID,
			}
			data, err := doPostJSON(apiFlag+"/auth/garmin/login", payload)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	loginCmd.Flags().StringVarP(&email, "email", "e", "", "Garmin account email (required)")
	loginCmd.Flags().StringVarP(&password, "password", "p", "", "Garmin account password (required)")
	loginCmd.Flags().StringVarP(&userID, "user", "u", "", "User ID (required)")
	authCmd.AddCommand(loginCmd)

	// resume
	var clientState, mfaCode, resumeUser string
	resumeCmd := &cobra.Command{
		Use:   "resume",
		Short: "Finish a pending login with the MFA code",
		RunE: func(cmd *cobra.Command, args []string) error {
			if clientState == "" || mfaCode == "" || resumeUser == "" {
				return fmt.Errorf("--state, --code and --user required")
			}
			payload := map[string]interface{}{
				"client_state": clientState,
				"mfa_code":     mfaCode,
				"user_id":      resumeUser,
			}
			data, err := doPostJSON(apiFlag+"/auth/garmin/resume_login", payload)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	resumeCmd.Flags().StringVarP(&clientState, "state", "s", "", "Challenge handle from login (required)")
	resumeCmd.Flags().StringVarP(&mfaCode, "code", "c", "", "MFA code (required)")
	resumeCmd.Flags().StringVarP(&resumeUser, "user", "u", "", "User ID (required)")
	authCmd.AddCommand(resumeCmd)

	rootCmd.AddCommand(authCmd)
}
