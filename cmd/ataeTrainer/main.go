package main

import (
	"github.com/labstack/gommon/color"

	"atae/internal/app/trainer"
)

func main() {
	printBanner()
	trainer.Execute()
}

var (
	version string
)

func printBanner() {
	banner := `
       __                 
  ____ _/ /_____ ____     
 / __ ` + "`" + `/ __/ __ ` + "`" + `/ _ \    
/ /_/ / /_/ /_/ /  __/    
\__,_/\__/\__,_/\___/   v: %s

%s
________________________________________________________

`
	cl := color.New()
	cl.Printf(banner, cl.Red(version), cl.Green("attention-based aspect sentiment model"))
}
