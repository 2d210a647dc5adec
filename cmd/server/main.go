package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/himanishpuri/AcousticBPM/pkg/acousticbpm"
	"github.com/himanishpuri/AcousticBPM/pkg/utils"
)

var (
	port           int
	dbPath         string
	tempDir        string
	workers        int
	allowedOrigins string
)

func init() {
	flag.IntVar(&port, "port", 8080, "HTTP server port")
	flag.StringVar(&dbPath, "db", getEnvOrDefault("ACOUSTIC_DB_PATH", "acousticbpm.sqlite3"), "Path to SQLite database")
	flag.StringVar(&tempDir, "temp", getEnvOrDefault("ACOUSTIC_TEMP_DIR", os.TempDir()), "Directory for uploaded files")
	flag.IntVar(&workers, "workers", 0, "Files analysed in parallel per scan (0 = number of CPUs)")
	flag.StringVar(&allowedOrigins, "origins", "*", "Comma-separated list of allowed CORS origins (use * for all)")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseOrigins(s string) []string {
	if s == "*" {
		return []string{"*"}
	}
	origins := strings.Split(s, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	return origins
}

func main() {
	flag.Parse()

	if err := utils.MakeDir(tempDir); err != nil {
		log.Fatalf("Failed to create temp directory: %v", err)
	}

	service, err := acousticbpm.NewService(
		acousticbpm.WithDBPath(dbPath),
		acousticbpm.WithWorkers(workers),
	)
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}
	defer service.Close()

	server := NewServer(service, &ServerConfig{
		Port:           port,
		DBPath:         dbPath,
		TempDir:        tempDir,
		AllowedOrigins: parseOrigins(allowedOrigins),
	})
	if err := server.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
