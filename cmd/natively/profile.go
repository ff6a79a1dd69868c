package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/natively/natively-cli/internal/models"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage your profile settings",
	Long:  `Show or update the settings of your own profile (display name, bio, socials, privacy).`,
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display your profile settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(true)
		if err != nil {
			return err
		}

		settings, err := a.client.MyProfileSettings(cmd.Context())
		if err != nil {
			return err
		}

		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(settings)
		}

		fmt.Printf("Name:         %s %s\n", settings.FirstName, settings.LastName)
		fmt.Printf("Display name: %s\n", settings.DisplayName)
		fmt.Printf("Email:        %s\n", settings.Email)
		if settings.Bio != "" {
			fmt.Printf("Bio:          %s\n", settings.Bio)
		}
		if settings.Location != "" {
			fmt.Printf("Location:     %s\n", settings.Location)
		}
		if settings.Website != "" {
			fmt.Printf("Website:      %s\n", settings.Website)
		}
		if settings.Twitter != "" {
			fmt.Printf("Twitter:      %s\n", settings.Twitter)
		}
		if settings.Instagram != "" {
			fmt.Printf("Instagram:    %s\n", settings.Instagram)
		}
		if settings.YouTube != "" {
			fmt.Printf("YouTube:      %s\n", settings.YouTube)
		}
		fmt.Printf("In directory: %t\n", settings.ShowInDirectory)
		fmt.Printf("Show stats:   %t\n", settings.ShowStats)
		fmt.Printf("Hide email:   %t\n", settings.HideEmail)
		return nil
	},
}

var profileUpdateCmd = &cobra.Command{
	Use:   "update [flags]",
	Short: "Update your profile settings",
	Long: `Update profile settings. Only specified fields are modified.

Examples:
  natively profile update --display-name "Alice" --bio "Maker of things"
  natively profile update --hide-email`,
	Args: cobra.NoArgs,
	RunE: runProfileUpdate,
}

var profileUploadImageCmd = &cobra.Command{
	Use:   "upload-image <file>",
	Short: "Upload a profile image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(true)
		if err != nil {
			return err
		}

		file, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open image: %w", err)
		}
		defer file.Close()

		imageURL, err := a.client.UploadProfileImage(cmd.Context(), filepath.Base(args[0]), file)
		if err != nil {
			return err
		}

		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(map[string]string{"profile_image": imageURL})
		}

		fmt.Printf("✓ Profile image uploaded: %s\n", imageURL)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileUpdateCmd)
	profileCmd.AddCommand(profileUploadImageCmd)

	profileUpdateCmd.Flags().String("first-name", "", "First name")
	profileUpdateCmd.Flags().String("last-name", "", "Last name")
	profileUpdateCmd.Flags().String("display-name", "", "Public display name")
	profileUpdateCmd.Flags().String("bio", "", "Short bio")
	profileUpdateCmd.Flags().String("location", "", "Location")
	profileUpdateCmd.Flags().String("website", "", "Website URL")
	profileUpdateCmd.Flags().String("phone", "", "Phone number")
	profileUpdateCmd.Flags().String("twitter", "", "Twitter handle")
	profileUpdateCmd.Flags().String("instagram", "", "Instagram handle")
	profileUpdateCmd.Flags().String("youtube", "", "YouTube channel")
	profileUpdateCmd.Flags().Bool("show-in-directory", false, "List the profile in the public directory")
	profileUpdateCmd.Flags().Bool("show-stats", false, "Show click stats on the public page")
	profileUpdateCmd.Flags().Bool("hide-email", false, "Hide the email address")
}

func runProfileUpdate(cmd *cobra.Command, args []string) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}

	update := &models.ProfileSettingsUpdate{}
	changed := false

	setString := func(flag string, dst **string) {
		if cmd.Flags().Changed(flag) {
			val, _ := cmd.Flags().GetString(flag)
			*dst = &val
			changed = true
		}
	}
	setBool := func(flag string, dst **bool) {
		if cmd.Flags().Changed(flag) {
			val, _ := cmd.Flags().GetBool(flag)
			*dst = &val
			changed = true
		}
	}

	setString("first-name", &update.FirstName)
	setString("last-name", &update.LastName)
	setString("display-name", &update.DisplayName)
	setString("bio", &update.Bio)
	setString("location", &update.Location)
	setString("website", &update.Website)
	setString("phone", &update.Phone)
	setString("twitter", &update.Twitter)
	setString("instagram", &update.Instagram)
	setString("youtube", &update.YouTube)
	setBool("show-in-directory", &update.ShowInDirectory)
	setBool("show-stats", &update.ShowStats)
	setBool("hide-email", &update.HideEmail)

	if !changed {
		return fmt.Errorf("nothing to update: pass at least one field flag")
	}

	settings, err := a.client.UpdateMyProfile(cmd.Context(), update)
	if err != nil {
		return err
	}

	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(settings)
	}

	fmt.Println("✓ Profile updated")
	return nil
}
