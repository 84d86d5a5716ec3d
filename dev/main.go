package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
)

func create(ctx context.Context, recreate, mongo bool) error {
	_, err := os.Stat("go.mod")
	if os.IsNotExist(err) {
		return fmt.Errorf("the dev environment must be created in the repository root (the same directory as the 'go.mod' file)")
	}

	if recreate {
		err = os.RemoveAll("dev/.state")
		if err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	err = os.MkdirAll("dev/.state", 0777)
	if err != nil && !os.IsExist(err) {
		return err
	}

	if mongo {
		StartMongo()
	}
	err = WriteLocalConfig(mongo)
	if err != nil {
		return err
	}
	return CreateStore(ctx)
}

func main() {
	recreate := flag.Bool("recreate", false, "recreate the dev environment from scratch")
	mongo := flag.Bool("mongo", false, "run a local mongo container and point the store at it")
	flag.Parse()

	err := create(context.Background(), *recreate, *mongo)
	if err != nil {
		slog.Error("failed to create dev environment", "err", err.Error())
		os.Exit(1)
	}

	slog.Info("dev environment created sucessfully!")
}
