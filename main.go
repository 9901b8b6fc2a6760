package main

import "github.com/Coder-Joe458/ios-review-checker/cmd"

func main() {
	cmd.Execute()
}
