// Command selectkit drives a single-select controller from a YAML config:
// as a terminal prompt, as rendered HTML or as an HTTP options API.
package main

func main() {
	Execute()
}
