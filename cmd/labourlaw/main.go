package main

import (
	"os"

	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/common/logger"
)

func main() {
	cmd := newRootCmd(os.LookupEnv)
	err := cmd.Execute()
	logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}
