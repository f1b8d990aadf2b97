package app

import (
	"github.com/knograph/knograph-backend/internal/platform/envutil"
)

type Config struct {
	Addr        string
	GraphPath   string
	Environment string
	Version     string
}

func LoadConfig() Config {
	return Config{
		Addr:        envutil.String("ADDR", ":8080"),
		GraphPath:   envutil.String("GRAPH_PATH", "data/dsa_graph.json"),
		Environment: envutil.String("ENVIRONMENT", "development"),
		Version:     envutil.String("VERSION", "dev"),
	}
}
