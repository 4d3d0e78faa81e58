// Command crev is the go-crev CLI: manage identities, draft trust and
// review proofs, verify a dependency list against the web of trust, and
// sync proof repositories.
package main

func main() {
	Execute()
}
