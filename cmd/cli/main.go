package main

import (
	"fmt"
	"os"

	"github.com/riponahmed2201/taskmgr/cmd/cli/auth"
	"github.com/riponahmed2201/taskmgr/cmd/cli/root"
	"github.com/riponahmed2201/taskmgr/cmd/cli/tasks"
)

func main() {
	rootCmd := root.GetRoot()
	auth.Init(rootCmd)
	tasks.Init(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}
