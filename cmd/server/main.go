package main

import (
	"flag"
	"strings"

	"github.com/joho/godotenv"
	"github.com/saunderground/underground/pkg/logger"
	"github.com/saunderground/underground/pkg/underground"
)

var (
	configPath string
	port       int
	dataDir    string
	mediaDir   string
	siteDir    string
	origins    string
)

func init() {
	flag.StringVar(&configPath, "config", "config.toml", "Path to TOML config file")
	flag.IntVar(&port, "port", 0, "HTTP server port")
	flag.StringVar(&dataDir, "data", "", "Directory holding the JSON documents")
	flag.StringVar(&mediaDir, "media", "", "Root of the images/ and music/ upload directories")
	flag.StringVar(&siteDir, "site", "", "Static site directory")
	flag.StringVar(&origins, "origins", "", "Comma-separated list of allowed CORS origins (use * for all)")
}

func main() {
	flag.Parse()
	log := logger.GetLogger()

	// optional .env next to the binary; absence is fine
	if err := godotenv.Load(); err == nil {
		log.Debugf("loaded .env")
	}

	cfg := defaultServerConfig()
	if err := cfg.applyFile(configPath); err != nil {
		log.Fatalf("config: %v", err)
	}
	cfg.applyEnv()

	// explicit flags win over everything
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Port = port
		case "data":
			cfg.DataDir = dataDir
		case "media":
			cfg.MediaDir = mediaDir
		case "site":
			cfg.SiteDir = siteDir
		case "origins":
			var parsed []string
			for _, o := range strings.Split(origins, ",") {
				if o = strings.TrimSpace(o); o != "" {
					parsed = append(parsed, o)
				}
			}
			cfg.AllowedOrigins = parsed
		}
	})

	service, err := underground.NewService(
		underground.WithDataDir(cfg.DataDir),
		underground.WithMediaDir(cfg.MediaDir),
	)
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}

	sessions := underground.NewSessions(cfg.AdminUser, cfg.AdminPass, underground.DefaultSessionTTL)
	uploads := underground.NewUploads(cfg.MediaDir)

	server := NewServer(service, sessions, uploads, cfg)
	if err := server.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
