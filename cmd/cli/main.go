package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/saunderground/underground/pkg/logger"
	"github.com/saunderground/underground/pkg/underground"
	"github.com/saunderground/underground/pkg/utils"
)

// Global flags shared by every command.
var (
	dataDir  string
	mediaDir string
)

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// createService builds the service over the same JSON documents the
// server uses, for offline moderation.
func createService() (underground.Service, error) {
	return underground.NewService(
		underground.WithDataDir(dataDir),
		underground.WithMediaDir(mediaDir),
	)
}

func main() {
	dataDir = getEnvOrDefault("UNDERGROUND_DATA_DIR", "data")
	mediaDir = getEnvOrDefault("UNDERGROUND_MEDIA_DIR", ".")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch command := os.Args[1]; command {
	case "roster":
		handleRoster()
	case "pending":
		handlePending()
	case "approve", "reject":
		handleResolve(command)
	case "songs":
		handleSongs()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`SA Underground moderation CLI

Usage:
  underground roster            List live artists
  underground pending           List queued submissions
  underground approve <id>      Move a submission to the roster
  underground reject <id>       Discard a submission
  underground songs             List tracks in the index

Environment:
  UNDERGROUND_DATA_DIR    JSON document directory (default: data)
  UNDERGROUND_MEDIA_DIR   images/ and music/ root (default: .)`)
}

func handleRoster() {
	log := logger.GetLogger()
	service, err := createService()
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}

	artists, err := service.ListArtists()
	if err != nil {
		log.Fatalf("Failed to list artists: %v", err)
	}
	if len(artists) == 0 {
		fmt.Println("Roster is empty.")
		return
	}
	for _, a := range artists {
		fmt.Printf("%-24s %-28s likes=%d\n", a.ID, a.Name, a.Likes)
	}
}

func handlePending() {
	log := logger.GetLogger()
	service, err := createService()
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}

	pending, err := service.ListPending()
	if err != nil {
		log.Fatalf("Failed to list pending artists: %v", err)
	}
	if len(pending) == 0 {
		fmt.Println("No pending submissions.")
		return
	}
	for _, a := range pending {
		submitted := ""
		if a.SubmittedAt != nil {
			submitted = a.SubmittedAt.Format("2006-01-02 15:04")
		}
		fmt.Printf("%-24s %-28s %-28s %s\n", a.ID, a.Name, a.Email, submitted)
	}
}

func handleResolve(command string) {
	log := logger.GetLogger()
	if len(os.Args) < 3 {
		fmt.Printf("Usage: underground %s <id>\n", command)
		os.Exit(1)
	}
	id := os.Args[2]

	service, err := createService()
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}

	if command == "approve" {
		artist, err := service.Approve(id)
		if err != nil {
			log.Fatalf("Approve %s: %v", id, err)
		}
		fmt.Printf("Approved %s (%s), now live.\n", artist.ID, artist.Name)
		return
	}
	if err := service.Reject(id); err != nil {
		log.Fatalf("Reject %s: %v", id, err)
	}
	fmt.Printf("Rejected %s.\n", id)
}

func handleSongs() {
	log := logger.GetLogger()
	service, err := createService()
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}

	songs, err := service.ListSongs()
	if err != nil {
		log.Fatalf("Failed to list songs: %v", err)
	}
	if len(songs) == 0 {
		fmt.Println("No tracks in the index.")
		return
	}
	for _, s := range songs {
		status := "ok"
		if !utils.FileExists(filepath.Join(mediaDir, filepath.FromSlash(s.Path))) {
			status = "missing"
		}
		fmt.Printf("%-36s %-24s %-24s %s (%s)\n", s.ID, s.Title, s.Artist, s.Path, status)
	}
}
