package main

import (
	_ "time/tzdata"

	"github.com/example/turnos/cmd"
)

func main() {
	cmd.Execute()
}
