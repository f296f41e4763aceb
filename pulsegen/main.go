// Command pulsegen checks and runs pulse programs against a simulated pattern
// generator.
package main

import "github.com/sarchlab/pulsegen/pulsegen/cmd"

func main() {
	cmd.Execute()
}
