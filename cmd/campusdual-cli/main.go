package main

import (
	"campusdual-backend/cmd/campusdual-cli/commands"
	"campusdual-backend/lib/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
