// Bindinc computes incremental invalidation for binding-class generation.
package main

import (
	"github.com/albertocavalcante/bindinc/cmd/bindinc/internal/cli"
)

func main() {
	cli.Execute()
}
