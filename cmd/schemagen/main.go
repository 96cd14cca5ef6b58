// schemagen CLI - synthetic data generation from JSON Schema
package main

import "github.com/getmockd/schemagen/pkg/cli"

func main() {
	cli.Execute()
}
