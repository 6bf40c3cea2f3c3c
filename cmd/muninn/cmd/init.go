/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/muninn/pkg/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Long: `Write a default muninn config file so it can be edited.

The file lands in the user config directory unless --config points
elsewhere. An existing file is left alone unless --force is given.

Examples:
  muninn init
  muninn init --config ./muninn.yaml --force`,
	Run: func(cmd *cobra.Command, args []string) {
		configPath, _ := cmd.Flags().GetString("config")
		force, _ := cmd.Flags().GetBool("force")

		path, written, err := bootstrapConfig(configPath, force)
		if err != nil {
			cmd.Printf("Error writing config: %v\n", err)
			os.Exit(1)
		}

		if !written {
			cmd.Printf("Config already exists at %s. Use --force to overwrite.\n", path)
			return
		}

		cmd.Printf("Wrote default config to %s\n", path)
		cmd.Printf("\nYou can now parse logs or start the server:\n")
		cmd.Printf("  muninn parse ./app.log\n")
		cmd.Printf("  muninn serve\n")
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().Bool("force", false, "Overwrite an existing config file")
}

// bootstrapConfig writes the default config to path (or the default
// location when path is empty) and reports whether a file was written
func bootstrapConfig(path string, force bool) (string, bool, error) {
	service := config.NewService(path)

	if config.ConfigExists(service.Path()) && !force {
		return service.Path(), false, nil
	}

	if err := service.Save(config.DefaultConfig()); err != nil {
		return service.Path(), false, err
	}

	return service.Path(), true, nil
}
