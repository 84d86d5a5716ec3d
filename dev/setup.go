package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"diveanalytics-backend/internal/config"
	"diveanalytics-backend/internal/store"
)

const localConfigPath = "config.local.json5"

func cmd(name string, args ...string) {
	cmd := exec.Command(name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	fullCmd := name
	for _, a := range args {
		fullCmd += " "
		fullCmd += a
	}

	fmt.Printf("$ %s\n", fullCmd)
	err := cmd.Run()
	if err != nil {
		os.Exit(1)
	}
}

func StartMongo() {
	cmd("docker", "run", "-d", "--rm", "--name", "divemeets-mongo", "-p", "27017:27017", "mongo:7")
}

const sqliteLocalConfig = `{
  // overrides for config.json5, this file is not committed
  store: {
    driver: "sqlite",
    path: "<dev_state>/divemeets.db",
  },
}
`

const mongoLocalConfig = `{
  // overrides for config.json5, this file is not committed
  store: {
    driver: "mongo",
    url: "mongodb://localhost:27017",
    database: "divemeets",
  },
}
`

func WriteLocalConfig(mongo bool) error {
	_, err := os.Stat(localConfigPath)
	if err == nil {
		fmt.Println("local config already exists at", localConfigPath)
		return nil
	}
	contents := sqliteLocalConfig
	if mongo {
		contents = mongoLocalConfig
	}
	fmt.Println("writing local config to", localConfigPath)
	return os.WriteFile(localConfigPath, []byte(contents), 0644)
}

// CreateStore opens the configured store once so its schema or indexes
// exist before the first import.
func CreateStore(ctx context.Context) error {
	cfg, err := config.Load("config.json5")
	if err != nil {
		return err
	}
	fmt.Printf("creating %s store\n", cfg.Store.Driver)
	s, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return err
	}
	return s.Close()
}
