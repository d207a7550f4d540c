package main

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/blogem/entrylog/client"
	"github.com/blogem/entrylog/config"
	"github.com/blogem/entrylog/models"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Report a single sighting to an entrylog server",
	Long: `Post one sighting to a running entrylog server, uploading the snapshot
to S3 first when --image is given and S3_BUCKET is configured.

Example:
  entrylog report --name Dana --type resident
  entrylog report --server http://gate:5000 --name unknown --type burglar --image snap.jpg`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().String("server", "", "Base URL of the entrylog server")
	reportCmd.Flags().String("name", "", "Name of the recognised person")
	reportCmd.Flags().String("type", "", "Type of entrance (resident, guest, delivery, burglar)")
	reportCmd.Flags().String("image", "", "Snapshot file to upload")
	reportCmd.MarkFlagRequired("type")

	settings.BindPFlag(config.KeyServerURL, reportCmd.Flags().Lookup("server"))
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadReport(settings)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := newLogger(settings)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	name, _ := cmd.Flags().GetString("name")
	entryType, _ := cmd.Flags().GetString("type")
	imagePath, _ := cmd.Flags().GetString("image")

	opts := []client.ReporterOption{client.WithWindow(cfg.Window), client.WithLogger(log)}
	if cfg.S3.Enabled() {
		uploader, err := client.NewS3Uploader(ctx, cfg.S3)
		if err != nil {
			return err
		}
		opts = append(opts, client.WithUploader(uploader))
	}

	sighting := client.Sighting{Name: name, TypeOfEnter: models.EntryType(entryType)}
	if imagePath != "" {
		data, err := os.ReadFile(imagePath)
		if err != nil {
			return fmt.Errorf("failed to read image: %w", err)
		}
		sighting.Image = data
		sighting.ContentType = mime.TypeByExtension(filepath.Ext(imagePath))
	}

	reporter := client.NewReporter(client.New(cfg.ServerURL), opts...)
	entry, sent, err := reporter.Report(ctx, sighting)
	if err != nil {
		return err
	}
	if !sent {
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), entry.ID)
	return nil
}
