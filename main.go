package main

import "github.com/stleox/tracuni/pkg/cmd"

func main() {
	cmd.Execute()
}
