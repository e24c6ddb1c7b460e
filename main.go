// Command magnetar targets kernel test suites at change-sets and renders
// Beaker run descriptions from a versioned YAML test database.
package main

import "github.com/papapumpkin/magnetar/cmd"

func main() {
	cmd.Execute()
}
