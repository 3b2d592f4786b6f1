// proofgate — the proof verification governance gateway.
package main

import "github.com/ppiankov/proofgate/internal/cli"

func main() {
	cli.Execute()
}
