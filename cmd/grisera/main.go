// Command grisera serves the GRISERA experiment data API
package main

import "grisera/internal/cli"

func main() {
	cli.Execute()
}
