package cmd

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/discode/internal/agents"
	"github.com/nextlevelbuilder/discode/internal/config"
	"github.com/nextlevelbuilder/discode/internal/routing"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check system environment and configuration health",
		Run: func(cmd *cobra.Command, args []string) {
			runDoctor()
		},
	}
}

func runDoctor() {
	fmt.Println("discode doctor")
	fmt.Printf("  Version:  %s\n", Version)
	fmt.Printf("  OS:       %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Printf("  Go:       %s\n", runtime.Version())
	fmt.Println()

	cfgPath := resolveConfigPath()
	fmt.Printf("  Config:   %s", cfgPath)
	if _, err := os.Stat(cfgPath); err != nil {
		fmt.Println(" (NOT FOUND, defaults apply)")
	} else {
		fmt.Println(" (OK)")
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("  Config load error: %s\n", err)
		return
	}
	fmt.Printf("  Hook:     %s:%d\n", cfg.Hook.Host, cfg.Hook.Port)
	fmt.Printf("  Chat:     %s", cfg.Chat.Platform)
	if cfg.Chat.Token == "" {
		fmt.Println(" (NO TOKEN)")
	} else {
		fmt.Println(" (token set)")
	}

	fmt.Printf("  Routing:  %s", cfg.RoutingFile)
	table, err := routing.LoadFile(cfg.RoutingFile)
	if err != nil {
		fmt.Printf(" (LOAD FAILED: %s)\n", err)
	} else {
		fmt.Printf(" (%d projects)\n", len(table.Names()))
	}

	fmt.Println()
	fmt.Println("  Agents:")
	registry := agents.NewRegistry()
	for _, name := range registry.Names() {
		adapter := registry.Get(name)
		status := "not installed"
		if adapter.IsInstalled() {
			status = "installed"
		}
		fmt.Printf("    %-10s %s (%s)\n", name, status, adapter.Config.DisplayName)
	}
}
