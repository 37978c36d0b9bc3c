// Package main provides the history CLI for notistack.
package main

func main() {
	Execute()
}
