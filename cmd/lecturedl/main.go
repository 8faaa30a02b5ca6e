package main

import (
	"context"

	"lecturedl/cmd/lecturedl/commands"
	"lecturedl/lib/telemetry"
)

func main() {
	ctx := context.Background()
	tel, err := telemetry.SetupFromEnv(ctx, "lecturedl")
	if err == nil {
		defer tel.Shutdown(ctx)
	}
	commands.ExecuteContext(ctx)
}
