package distribution

import (
	"testing"

	G "gorgonia.org/gorgonia"
)

// runTape evaluates the graph once on a tape machine and fails the
// test on error
func runTape(t *testing.T, g *G.ExprGraph) {
	t.Helper()

	vm := G.NewTapeMachine(g)
	if err := vm.RunAll(); err != nil {
		t.Fatal(err)
	}
	vm.Close()
}
