// Package main is the entry point for the Solana cycle finder.
package main

func main() {
	Execute()
}
